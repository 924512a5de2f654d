package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a signup request
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusDeclined RequestStatus = "declined"
)

// IsValid reports whether s is a known status
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s
func (s RequestStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusDeclined
}

// CanTransitionTo reports whether moving from s to target is a legal transition.
// Only pending requests move, and only into a terminal state.
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	return s == StatusPending && target.IsTerminal()
}

// SignupRequest is a student's application for a portal account
type SignupRequest struct {
	ID             uuid.UUID     `json:"id"`
	DepartmentID   int64         `json:"departmentId"`
	StudentName    string        `json:"studentName"`
	FatherName     string        `json:"fatherName"`
	CNIC           string        `json:"cnic"`
	Email          string        `json:"email"`
	Mobile         string        `json:"mobile"`
	City           string        `json:"city"`
	Qualification  string        `json:"qualification"`
	ObtainedMarks  int           `json:"obtainedMarks"`
	TotalMarks     int           `json:"totalMarks"`
	JoiningSession string        `json:"joiningSession"`
	JoiningDate    *time.Time    `json:"joiningDate,omitempty"`
	MarksheetRef   string        `json:"marksheetRef,omitempty"`
	Status         RequestStatus `json:"status"`
	ResolutionNote *string       `json:"resolutionNote,omitempty"`
	ResolvedBy     *string       `json:"resolvedBy,omitempty"`
	ResolvedAt     *time.Time    `json:"resolvedAt,omitempty"`
	NotifiedAt     *time.Time    `json:"notifiedAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Clone returns a deep copy so callers cannot alias stored pointers
func (r *SignupRequest) Clone() *SignupRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.JoiningDate = cloneTime(r.JoiningDate)
	c.ResolvedAt = cloneTime(r.ResolvedAt)
	c.NotifiedAt = cloneTime(r.NotifiedAt)
	c.ResolutionNote = cloneString(r.ResolutionNote)
	c.ResolvedBy = cloneString(r.ResolvedBy)
	return &c
}

// Resolution describes the terminal write applied to a pending request
type Resolution struct {
	Status     RequestStatus
	Note       *string
	ResolvedBy string
	ResolvedAt time.Time
}

// SignupRequestFilter narrows a listing of signup requests
type SignupRequestFilter struct {
	Status       *RequestStatus
	DepartmentID *int64
	Notified     *bool
	Page         int
	Size         int
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
