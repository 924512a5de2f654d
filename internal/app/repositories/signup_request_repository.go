package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
	"github.com/yigit/uniportal/internal/pkg/dberrors"
	"github.com/yigit/uniportal/internal/pkg/helpers"
)

const pendingCNICConstraint = "signup_requests_pending_cnic_idx"

const signupRequestColumns = `
	id, department_id, student_name, father_name, cnic, email, mobile, city,
	qualification, obtained_marks, total_marks, joining_session, joining_date,
	marksheet_ref, status, resolution_note, resolved_by, resolved_at, notified_at, created_at`

// PgSignupRequestRepository handles database operations for signup requests
type PgSignupRequestRepository struct {
	db DBTX
}

// NewSignupRequestRepository creates a new signup request repository
func NewSignupRequestRepository(db DBTX) *PgSignupRequestRepository {
	return &PgSignupRequestRepository{db: db}
}

// Create inserts a new pending request. ID and CreatedAt are set when zero.
func (r *PgSignupRequestRepository) Create(ctx context.Context, req *models.SignupRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = models.StatusPending
	}

	query := `
		INSERT INTO signup_requests (
			id, department_id, student_name, father_name, cnic, email, mobile, city,
			qualification, obtained_marks, total_marks, joining_session, joining_date,
			marksheet_ref, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.Exec(ctx, query,
		req.ID, req.DepartmentID, req.StudentName, req.FatherName, req.CNIC, req.Email,
		req.Mobile, req.City, req.Qualification, req.ObtainedMarks, req.TotalMarks,
		req.JoiningSession, req.JoiningDate, req.MarksheetRef, req.Status, req.CreatedAt,
	)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, pendingCNICConstraint) {
			return apperrors.ErrDuplicatePending
		}
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrDepartmentNotFound
		}
		return apperrors.Unavailable("create signup request", err)
	}
	return nil
}

// GetByID retrieves a signup request by ID
func (r *PgSignupRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SignupRequest, error) {
	query := `SELECT ` + signupRequestColumns + ` FROM signup_requests WHERE id = $1`

	req, err := scanSignupRequest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, apperrors.Unavailable("get signup request", err)
	}
	return req, nil
}

// List returns one page of requests matching filter, newest first, plus the total match count
func (r *PgSignupRequestRepository) List(ctx context.Context, filter models.SignupRequestFilter) ([]*models.SignupRequest, int64, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		conds = append(conds, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.Notified != nil {
		if *filter.Notified {
			conds = append(conds, "notified_at IS NOT NULL")
		} else {
			conds = append(conds, "notified_at IS NULL")
		}
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM signup_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Unavailable("count signup requests", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM signup_requests%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		signupRequestColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Unavailable("list signup requests", err)
	}
	defer rows.Close()

	requests := make([]*models.SignupRequest, 0, limit)
	for rows.Next() {
		req, err := scanSignupRequest(rows)
		if err != nil {
			return nil, 0, apperrors.Unavailable("scan signup request", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Unavailable("list signup requests", err)
	}

	return requests, total, nil
}

// Resolve moves a pending request into a terminal status. The status guard is
// part of the UPDATE so only one concurrent caller can win.
func (r *PgSignupRequestRepository) Resolve(ctx context.Context, id uuid.UUID, res models.Resolution) error {
	query := `
		UPDATE signup_requests
		SET status = $2, resolution_note = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, id, res.Status, res.Note, res.ResolvedBy, res.ResolvedAt)
	if err != nil {
		return apperrors.Unavailable("resolve signup request", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM signup_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return apperrors.Unavailable("resolve signup request", err)
	}
	if !exists {
		return apperrors.ErrRequestNotFound
	}
	return apperrors.ErrAlreadyResolved
}

// MarkNotified records the time the applicant was last mailed about the outcome
func (r *PgSignupRequestRepository) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE signup_requests SET notified_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return apperrors.Unavailable("mark signup request notified", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRequestNotFound
	}
	return nil
}

func scanSignupRequest(row pgx.Row) (*models.SignupRequest, error) {
	var req models.SignupRequest
	err := row.Scan(
		&req.ID,
		&req.DepartmentID,
		&req.StudentName,
		&req.FatherName,
		&req.CNIC,
		&req.Email,
		&req.Mobile,
		&req.City,
		&req.Qualification,
		&req.ObtainedMarks,
		&req.TotalMarks,
		&req.JoiningSession,
		&req.JoiningDate,
		&req.MarksheetRef,
		&req.Status,
		&req.ResolutionNote,
		&req.ResolvedBy,
		&req.ResolvedAt,
		&req.NotifiedAt,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
