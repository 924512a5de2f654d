package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Unavailable wraps a store or transport failure so callers can match it
// against ErrUnavailable while keeping the original cause.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// IsUnavailable reports whether err is a transient infrastructure failure,
// including context timeouts.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
