package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
	"github.com/yigit/uniportal/internal/pkg/dberrors"
)

const (
	accountRollNumberConstraint = "accounts_roll_number_key"
	accountEmailConstraint      = "accounts_email_key"
	accountRequestConstraint    = "accounts_signup_request_id_key"
)

// PgAccountRepository handles database operations for provisioned accounts
type PgAccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db DBTX) *PgAccountRepository {
	return &PgAccountRepository{db: db}
}

// Create inserts the account under a savepoint so a uniqueness violation
// leaves the enclosing transaction usable for a retry.
func (r *PgAccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.AuthIdentity == uuid.Nil {
		account.AuthIdentity = uuid.New()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO accounts (auth_identity, roll_number, email, password_hash, department_id, signup_request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	err := withSavepoint(ctx, r.db, func(db DBTX) error {
		_, err := db.Exec(ctx, query,
			account.AuthIdentity, account.RollNumber, account.Email, account.PasswordHash,
			account.DepartmentID, account.SignupRequestID, account.CreatedAt,
		)
		return err
	})

	switch {
	case err == nil:
		return nil
	case dberrors.IsDuplicateConstraintError(err, accountRollNumberConstraint):
		return apperrors.ErrRollNumberTaken
	case dberrors.IsDuplicateConstraintError(err, accountEmailConstraint):
		return apperrors.ErrEmailAlreadyBound
	case dberrors.IsDuplicateConstraintError(err, accountRequestConstraint):
		return apperrors.ErrAlreadyResolved
	default:
		return apperrors.Unavailable("create account", err)
	}
}

// GetBySignupRequestID returns the account provisioned for a request
func (r *PgAccountRepository) GetBySignupRequestID(ctx context.Context, requestID uuid.UUID) (*models.Account, error) {
	query := `
		SELECT auth_identity, roll_number, email, password_hash, department_id, signup_request_id, created_at
		FROM accounts
		WHERE signup_request_id = $1
	`

	var a models.Account
	err := r.db.QueryRow(ctx, query, requestID).Scan(
		&a.AuthIdentity,
		&a.RollNumber,
		&a.Email,
		&a.PasswordHash,
		&a.DepartmentID,
		&a.SignupRequestID,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Unavailable("get account", err)
	}
	return &a, nil
}

// UpdatePasswordHash replaces the stored hash, used when a temporary password is reissued
func (r *PgAccountRepository) UpdatePasswordHash(ctx context.Context, authIdentity uuid.UUID, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE accounts SET password_hash = $2 WHERE auth_identity = $1`, authIdentity, hash)
	if err != nil {
		return apperrors.Unavailable("update account password", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}
