package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/db"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx so every repository can run
// either standalone or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SignupRequestRepository persists signup requests
type SignupRequestRepository interface {
	Create(ctx context.Context, req *models.SignupRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SignupRequest, error)
	List(ctx context.Context, filter models.SignupRequestFilter) ([]*models.SignupRequest, int64, error)
	// Resolve is a compare-and-swap on status = pending. It returns
	// apperrors.ErrAlreadyResolved when another writer got there first.
	Resolve(ctx context.Context, id uuid.UUID, res models.Resolution) error
	MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CoordinatorRepository looks up department reviewers
type CoordinatorRepository interface {
	GetBySubject(ctx context.Context, subject string) (*models.Coordinator, error)
	Upsert(ctx context.Context, c *models.Coordinator) error
	SetActive(ctx context.Context, subject string, active bool) error
}

// AccountRepository persists provisioned login accounts
type AccountRepository interface {
	// Create returns apperrors.ErrRollNumberTaken or apperrors.ErrEmailAlreadyBound
	// on the respective uniqueness violations.
	Create(ctx context.Context, account *models.Account) error
	GetBySignupRequestID(ctx context.Context, requestID uuid.UUID) (*models.Account, error)
	UpdatePasswordHash(ctx context.Context, authIdentity uuid.UUID, hash string) error
}

// SequenceRepository hands out per-department roll number sequence values
type SequenceRepository interface {
	// Next atomically increments and returns the department's counter
	Next(ctx context.Context, departmentID int64) (int64, error)
}

// DepartmentRepository reads and seeds departments
type DepartmentRepository interface {
	Create(ctx context.Context, department *models.Department) error
	GetByID(ctx context.Context, id int64) (*models.Department, error)
	GetByCode(ctx context.Context, code string) (*models.Department, error)
	GetAll(ctx context.Context) ([]*models.Department, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	SignupRequests SignupRequestRepository
	Coordinators   CoordinatorRepository
	Accounts       AccountRepository
	Sequences      SequenceRepository
	Departments    DepartmentRepository
}

// TxManager runs a unit of work against repositories bound to one transaction.
// The work commits only when fn returns nil.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

// NewRepositories initializes all repositories over a pool or transaction
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		SignupRequests: NewSignupRequestRepository(db),
		Coordinators:   NewCoordinatorRepository(db),
		Accounts:       NewAccountRepository(db),
		Sequences:      NewSequenceRepository(db),
		Departments:    NewDepartmentRepository(db),
	}
}

type pgTxManager struct {
	db *db.PostgresDB
}

// NewTxManager creates a TxManager backed by PostgreSQL transactions
func NewTxManager(pg *db.PostgresDB) TxManager {
	return &pgTxManager{db: pg}
}

func (m *pgTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return m.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// withSavepoint runs fn under a savepoint when db is a transaction so a failed
// statement does not abort the surrounding transaction.
func withSavepoint(ctx context.Context, db DBTX, fn func(db DBTX) error) error {
	tx, ok := db.(pgx.Tx)
	if !ok {
		return fn(db)
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(sp); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}
