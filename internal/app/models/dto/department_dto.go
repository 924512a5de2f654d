package dto

import "github.com/yigit/uniportal/internal/app/models"

// DepartmentResponse represents basic department information
type DepartmentResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// FromDepartment converts a department model to its response shape
func FromDepartment(d *models.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Name: d.Name, Code: d.Code}
}

// CreateDepartmentRequest is the body of POST /departments
type CreateDepartmentRequest struct {
	Name string `json:"name" binding:"required,max=100"`
	Code string `json:"code" binding:"required,max=10,alphanum"`
}

// FromDepartments converts a slice of department models
func FromDepartments(items []*models.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(items))
	for _, d := range items {
		out = append(out, FromDepartment(d))
	}
	return out
}
