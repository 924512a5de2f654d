package services

// Services defined in this package:
// - SignupRequestService: submission, review and resolution of signup requests
// - CredentialIssuer: roll number allocation and one-time passwords for approved requests
// - Notifier: outcome mails to applicants
// - DepartmentService: department lookup and creation
// - CoordinatorService: coordinator assignment

// Services groups the services handed to controllers
type Services struct {
	SignupRequests *SignupRequestService
	Departments    *DepartmentService
	Coordinators   *CoordinatorService
}
