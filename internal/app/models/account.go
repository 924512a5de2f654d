package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is the login identity provisioned when a signup request is approved
type Account struct {
	AuthIdentity    uuid.UUID `json:"authIdentity"`
	RollNumber      string    `json:"rollNumber"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	DepartmentID    int64     `json:"departmentId"`
	SignupRequestID uuid.UUID `json:"signupRequestId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Credential is the one-time disclosure handed back after provisioning.
// It is never persisted.
type Credential struct {
	RollNumber        string `json:"rollNumber"`
	TemporaryPassword string `json:"temporaryPassword"`
}
