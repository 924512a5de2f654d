package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
	"github.com/yigit/uniportal/internal/pkg/dberrors"
)

// PgDepartmentRepository handles database operations for departments
type PgDepartmentRepository struct {
	db DBTX
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(db DBTX) *PgDepartmentRepository {
	return &PgDepartmentRepository{
		db: db,
	}
}

// Create creates a new department
func (r *PgDepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	query := `
		INSERT INTO departments (name, code)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	department.Code = strings.ToUpper(strings.TrimSpace(department.Code))
	err := r.db.QueryRow(ctx, query, department.Name, department.Code).Scan(&department.ID, &department.CreatedAt)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrDepartmentAlreadyExists
		}
		return apperrors.Unavailable("create department", err)
	}

	return nil
}

// GetByID retrieves a department by ID
func (r *PgDepartmentRepository) GetByID(ctx context.Context, id int64) (*models.Department, error) {
	return r.getOne(ctx, `SELECT id, name, code, created_at FROM departments WHERE id = $1`, id)
}

// GetByCode retrieves a department by its roll number prefix
func (r *PgDepartmentRepository) GetByCode(ctx context.Context, code string) (*models.Department, error) {
	return r.getOne(ctx, `SELECT id, name, code, created_at FROM departments WHERE code = $1`,
		strings.ToUpper(strings.TrimSpace(code)))
}

func (r *PgDepartmentRepository) getOne(ctx context.Context, query string, arg any) (*models.Department, error) {
	var department models.Department
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&department.ID,
		&department.Name,
		&department.Code,
		&department.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		return nil, apperrors.Unavailable("get department", err)
	}

	return &department, nil
}

// GetAll retrieves all departments ordered by name
func (r *PgDepartmentRepository) GetAll(ctx context.Context) ([]*models.Department, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, code, created_at FROM departments ORDER BY name`)
	if err != nil {
		return nil, apperrors.Unavailable("list departments", err)
	}
	defer rows.Close()

	departments := []*models.Department{}
	for rows.Next() {
		var department models.Department
		if err := rows.Scan(
			&department.ID,
			&department.Name,
			&department.Code,
			&department.CreatedAt,
		); err != nil {
			return nil, apperrors.Unavailable("scan department", err)
		}
		departments = append(departments, &department)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Unavailable("list departments", err)
	}

	return departments, nil
}
