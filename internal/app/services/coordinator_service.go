package services

import (
	"context"
	"strings"

	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/repositories"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
	"github.com/yigit/uniportal/internal/pkg/logger"
)

// CoordinatorService manages which token subjects review which department
type CoordinatorService struct {
	coordinators repositories.CoordinatorRepository
	departments  repositories.DepartmentRepository
}

// NewCoordinatorService creates a new CoordinatorService
func NewCoordinatorService(coordinators repositories.CoordinatorRepository, departments repositories.DepartmentRepository) *CoordinatorService {
	return &CoordinatorService{coordinators: coordinators, departments: departments}
}

// Assign binds subject to the department identified by its code and activates it
func (s *CoordinatorService) Assign(ctx context.Context, subject, name, departmentCode string) (*models.Coordinator, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, apperrors.NewBadRequestError("coordinator subject cannot be empty")
	}

	department, err := s.departments.GetByCode(ctx, departmentCode)
	if err != nil {
		return nil, err
	}

	c := &models.Coordinator{
		Subject:      subject,
		DepartmentID: department.ID,
		Name:         strings.TrimSpace(name),
		IsActive:     true,
	}
	if err := s.coordinators.Upsert(ctx, c); err != nil {
		return nil, err
	}

	logger.Info().Str("subject", subject).Int64("departmentId", department.ID).Msg("Coordinator assigned")
	return c, nil
}

// Deactivate revokes the coordinator's reviewer rights without deleting it
func (s *CoordinatorService) Deactivate(ctx context.Context, subject string) error {
	if err := s.coordinators.SetActive(ctx, strings.TrimSpace(subject), false); err != nil {
		return err
	}
	logger.Info().Str("subject", subject).Msg("Coordinator deactivated")
	return nil
}
