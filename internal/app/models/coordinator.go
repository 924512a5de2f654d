package models

import "time"

// Coordinator is a department-scoped reviewer identified by the subject of its bearer token
type Coordinator struct {
	Subject      string    `json:"subject"`
	DepartmentID int64     `json:"departmentId"`
	Name         string    `json:"name"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}
