package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/uniportal/internal/app/models"
	appRepos "github.com/yigit/uniportal/internal/app/repositories"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
)

// DefaultDepartments are created on first start so the signup form has something to offer
var DefaultDepartments = []appModels.Department{
	{Name: "Computer Science", Code: "CS"},
	{Name: "Electrical Engineering", Code: "EE"},
	{Name: "Mathematics", Code: "MTH"},
	{Name: "Physics", Code: "PHY"},
}

// CreateDefaultData creates the default departments if they don't exist.
// Errors are collected so one failing department does not block the rest.
func CreateDefaultData(ctx context.Context, departmentRepo appRepos.DepartmentRepository, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default departments...")
	var finalErr error

	created := 0
	for _, d := range DefaultDepartments {
		dept := d
		err := departmentRepo.Create(ctx, &dept)
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperrors.ErrDepartmentAlreadyExists):
			// already seeded
		default:
			lgr.Error().Err(err).Str("code", d.Code).Msg("Error creating default department")
			finalErr = errors.Join(finalErr, err)
		}
	}

	lgr.Info().Int("created", created).Msg("Default data check/creation finished.")
	return finalErr
}
