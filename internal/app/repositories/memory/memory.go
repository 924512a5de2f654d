// Package memory is an in-process implementation of the repository contracts.
// It is safe for one process only; multiple API instances need the postgres driver.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/repositories"
)

type state struct {
	requests     map[uuid.UUID]*models.SignupRequest
	coordinators map[string]models.Coordinator
	accounts     map[uuid.UUID]models.Account
	departments  map[int64]models.Department
	sequences    map[int64]int64
	lastDeptID   int64
}

func newState() *state {
	return &state{
		requests:     make(map[uuid.UUID]*models.SignupRequest),
		coordinators: make(map[string]models.Coordinator),
		accounts:     make(map[uuid.UUID]models.Account),
		departments:  make(map[int64]models.Department),
		sequences:    make(map[int64]int64),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.requests {
		c.requests[k] = v.Clone()
	}
	for k, v := range s.coordinators {
		c.coordinators[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.departments {
		c.departments[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	c.lastDeptID = s.lastDeptID
	return c
}

// DB holds all collections behind one lock
type DB struct {
	mu sync.RWMutex
	st *state
}

// New creates an empty in-memory database
func New() *DB {
	return &DB{st: newState()}
}

// Repositories returns repositories that each lock the database per call
func (db *DB) Repositories() *repositories.Repositories {
	return newRepositories(handle{db: db})
}

// WithinTransaction runs fn against a private copy of the data and publishes
// the copy only if fn succeeds. Transactions are serialized.
func (db *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos *repositories.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx := db.st.clone()
	if err := fn(ctx, newRepositories(handle{tx: tx})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	db.st = tx
	return nil
}

func newRepositories(h handle) *repositories.Repositories {
	return &repositories.Repositories{
		SignupRequests: &signupRequestRepository{h},
		Coordinators:   &coordinatorRepository{h},
		Accounts:       &accountRepository{h},
		Sequences:      &sequenceRepository{h},
		Departments:    &departmentRepository{h},
	}
}

// handle is bound either to the shared state (locking per call) or to a
// transaction's private copy (already guarded by the transaction lock).
type handle struct {
	db *DB
	tx *state
}

func (h handle) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.tx != nil {
		return fn(h.tx)
	}
	h.db.mu.RLock()
	defer h.db.mu.RUnlock()
	return fn(h.db.st)
}

func (h handle) write(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.tx != nil {
		return fn(h.tx)
	}
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return fn(h.db.st)
}

var _ repositories.TxManager = (*DB)(nil)
