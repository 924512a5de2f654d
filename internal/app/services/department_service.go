package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/repositories"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
)

const maxDepartmentCodeLength = 10

// DepartmentService handles department-related operations
type DepartmentService struct {
	departmentRepo repositories.DepartmentRepository
}

// NewDepartmentService creates a new department service instance
func NewDepartmentService(departmentRepo repositories.DepartmentRepository) *DepartmentService {
	return &DepartmentService{
		departmentRepo: departmentRepo,
	}
}

// validateDepartment validates department data before database operations
func (s *DepartmentService) validateDepartment(department *models.Department) error {
	if department == nil {
		return apperrors.NewBadRequestError("department is nil")
	}

	department.Name = strings.TrimSpace(department.Name)
	department.Code = strings.ToUpper(strings.TrimSpace(department.Code))

	if department.Name == "" {
		return apperrors.NewBadRequestError("department name cannot be empty")
	}
	if !isValidDepartmentCode(department.Code) {
		return apperrors.NewBadRequestError(fmt.Sprintf("department code must be 1-%d letters or digits", maxDepartmentCodeLength))
	}

	return nil
}

// isValidDepartmentCode checks the code is usable as a roll number prefix
func isValidDepartmentCode(code string) bool {
	if code == "" || len(code) > maxDepartmentCodeLength {
		return false
	}
	for _, char := range code {
		if !((char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')) {
			return false
		}
	}
	return true
}

// CreateDepartment creates a new department
func (s *DepartmentService) CreateDepartment(ctx context.Context, department *models.Department) error {
	if err := s.validateDepartment(department); err != nil {
		return err
	}
	return s.departmentRepo.Create(ctx, department)
}

// GetDepartmentByID retrieves a department by ID
func (s *DepartmentService) GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error) {
	if id <= 0 {
		return nil, apperrors.NewBadRequestError("invalid department ID")
	}
	return s.departmentRepo.GetByID(ctx, id)
}

// GetAllDepartments retrieves all departments
func (s *DepartmentService) GetAllDepartments(ctx context.Context) ([]*models.Department, error) {
	return s.departmentRepo.GetAll(ctx)
}
