package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrMalformedIdentity = errors.New("malformed identity")
	ErrTokenExpired      = errors.New("token expired")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Infrastructure errors
	ErrUnavailable = errors.New("service unavailable")
)

// Signup workflow errors
var (
	ErrRequestNotFound   = NewResourceNotFoundError("signup request not found")
	ErrAlreadyResolved   = errors.New("signup request already resolved")
	ErrNotResolved       = errors.New("signup request is still pending")
	ErrEmailAlreadyBound = NewConflictError("email is already bound to an account")
	ErrRollNumberTaken   = errors.New("roll number already taken")
	ErrDuplicatePending  = NewConflictError("a pending signup request already exists for this applicant")
)

// Department Errors
var (
	ErrDepartmentNotFound      = NewResourceNotFoundError("department not found")
	ErrDepartmentAlreadyExists = NewConflictError("department with this name or code already exists")
)

// Account Errors
var (
	ErrAccountNotFound = NewResourceNotFoundError("account not found")
)

// Coordinator Errors
var (
	ErrCoordinatorNotFound = NewResourceNotFoundError("coordinator not found")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// Is reports whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError carries a caller-facing message over one of the sentinel errors
type CustomError struct {
	Err     error
	Message string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}
