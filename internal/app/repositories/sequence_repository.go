package repositories

import (
	"context"

	"github.com/yigit/uniportal/internal/pkg/apperrors"
)

// PgSequenceRepository allocates roll number sequence values per department
type PgSequenceRepository struct {
	db DBTX
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db DBTX) *PgSequenceRepository {
	return &PgSequenceRepository{db: db}
}

// Next increments and returns the department counter in one statement. The
// row lock taken by the upsert serializes concurrent allocators.
func (r *PgSequenceRepository) Next(ctx context.Context, departmentID int64) (int64, error) {
	query := `
		INSERT INTO roll_number_sequences (department_id, last_value)
		VALUES ($1, 1)
		ON CONFLICT (department_id)
		DO UPDATE SET last_value = roll_number_sequences.last_value + 1
		RETURNING last_value
	`

	var next int64
	if err := r.db.QueryRow(ctx, query, departmentID).Scan(&next); err != nil {
		return 0, apperrors.Unavailable("next roll number sequence", err)
	}
	return next, nil
}
