package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
	"github.com/yigit/uniportal/internal/pkg/dberrors"
)

// PgCoordinatorRepository handles database operations for coordinators
type PgCoordinatorRepository struct {
	db DBTX
}

// NewCoordinatorRepository creates a new coordinator repository
func NewCoordinatorRepository(db DBTX) *PgCoordinatorRepository {
	return &PgCoordinatorRepository{db: db}
}

// GetBySubject retrieves a coordinator by the token subject it is bound to
func (r *PgCoordinatorRepository) GetBySubject(ctx context.Context, subject string) (*models.Coordinator, error) {
	query := `
		SELECT subject, department_id, name, is_active, created_at
		FROM coordinators
		WHERE subject = $1
	`

	var c models.Coordinator
	err := r.db.QueryRow(ctx, query, subject).Scan(
		&c.Subject,
		&c.DepartmentID,
		&c.Name,
		&c.IsActive,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCoordinatorNotFound
		}
		return nil, apperrors.Unavailable("get coordinator", err)
	}
	return &c, nil
}

// Upsert creates the coordinator or rebinds an existing subject to a department
func (r *PgCoordinatorRepository) Upsert(ctx context.Context, c *models.Coordinator) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO coordinators (subject, department_id, name, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject)
		DO UPDATE SET department_id = EXCLUDED.department_id, name = EXCLUDED.name, is_active = EXCLUDED.is_active
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query, c.Subject, c.DepartmentID, c.Name, c.IsActive, c.CreatedAt).Scan(&c.CreatedAt)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrDepartmentNotFound
		}
		return apperrors.Unavailable("upsert coordinator", err)
	}
	return nil
}

// SetActive toggles whether the coordinator may act on requests
func (r *PgCoordinatorRepository) SetActive(ctx context.Context, subject string, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE coordinators SET is_active = $2 WHERE subject = $1`, subject, active)
	if err != nil {
		return apperrors.Unavailable("update coordinator", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCoordinatorNotFound
	}
	return nil
}
