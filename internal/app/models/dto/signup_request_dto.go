package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/uniportal/internal/app/models"
)

// SubmitSignupRequest is the public signup form
type SubmitSignupRequest struct {
	DepartmentID   int64      `json:"departmentId" binding:"required,gt=0"`
	StudentName    string     `json:"studentName" binding:"required,max=120"`
	FatherName     string     `json:"fatherName" binding:"required,max=120"`
	CNIC           string     `json:"cnic" binding:"required,cnic"`
	Email          string     `json:"email" binding:"required,email,max=254"`
	Mobile         string     `json:"mobile" binding:"required,mobile"`
	City           string     `json:"city" binding:"required,max=80"`
	Qualification  string     `json:"qualification" binding:"required,max=120"`
	ObtainedMarks  int        `json:"obtainedMarks" binding:"gte=0,ltefield=TotalMarks"`
	TotalMarks     int        `json:"totalMarks" binding:"required,gt=0"`
	JoiningSession string     `json:"joiningSession" binding:"required,max=20"`
	JoiningDate    *time.Time `json:"joiningDate,omitempty"`
	MarksheetRef   string     `json:"marksheetRef,omitempty" binding:"max=255"`
}

// ToModel converts the form into a pending signup request
func (r *SubmitSignupRequest) ToModel() *models.SignupRequest {
	return &models.SignupRequest{
		DepartmentID:   r.DepartmentID,
		StudentName:    strings.TrimSpace(r.StudentName),
		FatherName:     strings.TrimSpace(r.FatherName),
		CNIC:           strings.ReplaceAll(strings.TrimSpace(r.CNIC), "-", ""),
		Email:          strings.ToLower(strings.TrimSpace(r.Email)),
		Mobile:         strings.TrimSpace(r.Mobile),
		City:           strings.TrimSpace(r.City),
		Qualification:  strings.TrimSpace(r.Qualification),
		ObtainedMarks:  r.ObtainedMarks,
		TotalMarks:     r.TotalMarks,
		JoiningSession: strings.TrimSpace(r.JoiningSession),
		JoiningDate:    r.JoiningDate,
		MarksheetRef:   strings.TrimSpace(r.MarksheetRef),
		Status:         models.StatusPending,
	}
}

// TransitionRequest is the body of PATCH /requests/:id
type TransitionRequest struct {
	Status string  `json:"status" binding:"required,oneof=approved declined"`
	Note   *string `json:"note,omitempty" binding:"omitempty,max=1000"`
}

// SignupRequestResponse is the read model of a signup request. It never
// carries credential fields.
type SignupRequestResponse struct {
	ID             uuid.UUID  `json:"id"`
	DepartmentID   int64      `json:"departmentId"`
	StudentName    string     `json:"studentName"`
	FatherName     string     `json:"fatherName"`
	CNIC           string     `json:"cnic"`
	Email          string     `json:"email"`
	Mobile         string     `json:"mobile"`
	City           string     `json:"city"`
	Qualification  string     `json:"qualification"`
	ObtainedMarks  int        `json:"obtainedMarks"`
	TotalMarks     int        `json:"totalMarks"`
	JoiningSession string     `json:"joiningSession"`
	JoiningDate    *time.Time `json:"joiningDate,omitempty"`
	MarksheetRef   string     `json:"marksheetRef,omitempty"`
	Status         string     `json:"status" example:"pending"`
	ResolutionNote *string    `json:"resolutionNote,omitempty"`
	ResolvedBy     *string    `json:"resolvedBy,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	NotifiedAt     *time.Time `json:"notifiedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// CredentialResponse is the one-time credential disclosure
type CredentialResponse struct {
	RollNumber        string `json:"rollNumber" example:"CS-24-0001"`
	TemporaryPassword string `json:"temporaryPassword"`
}

// TransitionResponse is returned once by a successful PATCH
type TransitionResponse struct {
	Request    SignupRequestResponse `json:"request"`
	Credential *CredentialResponse   `json:"credential,omitempty"`
}

// FromSignupRequest converts a model to its read shape
func FromSignupRequest(r *models.SignupRequest) SignupRequestResponse {
	return SignupRequestResponse{
		ID:             r.ID,
		DepartmentID:   r.DepartmentID,
		StudentName:    r.StudentName,
		FatherName:     r.FatherName,
		CNIC:           r.CNIC,
		Email:          r.Email,
		Mobile:         r.Mobile,
		City:           r.City,
		Qualification:  r.Qualification,
		ObtainedMarks:  r.ObtainedMarks,
		TotalMarks:     r.TotalMarks,
		JoiningSession: r.JoiningSession,
		JoiningDate:    r.JoiningDate,
		MarksheetRef:   r.MarksheetRef,
		Status:         string(r.Status),
		ResolutionNote: r.ResolutionNote,
		ResolvedBy:     r.ResolvedBy,
		ResolvedAt:     r.ResolvedAt,
		NotifiedAt:     r.NotifiedAt,
		CreatedAt:      r.CreatedAt,
	}
}

// FromSignupRequests converts a slice of models
func FromSignupRequests(items []*models.SignupRequest) []SignupRequestResponse {
	out := make([]SignupRequestResponse, 0, len(items))
	for _, r := range items {
		out = append(out, FromSignupRequest(r))
	}
	return out
}

// FromCredential converts a credential, keeping nil as nil
func FromCredential(c *models.Credential) *CredentialResponse {
	if c == nil {
		return nil
	}
	return &CredentialResponse{RollNumber: c.RollNumber, TemporaryPassword: c.TemporaryPassword}
}

// ResendResponse reports the outcome of a manual notification resend
type ResendResponse struct {
	RequestID  uuid.UUID `json:"requestId"`
	Status     string    `json:"status"`
	NotifiedAt time.Time `json:"notifiedAt"`
}
