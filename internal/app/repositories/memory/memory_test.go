package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/repositories"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
)

func setup(t *testing.T) (*DB, *repositories.Repositories, *models.Department) {
	t.Helper()
	db := New()
	repos := db.Repositories()
	dept := &models.Department{Name: "Computer Science", Code: "cs"}
	require.NoError(t, repos.Departments.Create(context.Background(), dept))
	return db, repos, dept
}

func newRequest(deptID int64, cnic string) *models.SignupRequest {
	return &models.SignupRequest{
		DepartmentID:   deptID,
		StudentName:    "Ayesha Khan",
		FatherName:     "Imran Khan",
		CNIC:           cnic,
		Email:          cnic + "@example.com",
		Mobile:         "03001234567",
		City:           "Lahore",
		Qualification:  "FSc",
		ObtainedMarks:  950,
		TotalMarks:     1100,
		JoiningSession: "2025-2029",
	}
}

func TestDepartments(t *testing.T) {
	ctx := context.Background()
	_, repos, dept := setup(t)

	assert.Equal(t, "CS", dept.Code)
	assert.NotZero(t, dept.ID)

	got, err := repos.Departments.GetByCode(ctx, " cs ")
	require.NoError(t, err)
	assert.Equal(t, dept.ID, got.ID)

	err = repos.Departments.Create(ctx, &models.Department{Name: "Other", Code: "CS"})
	assert.ErrorIs(t, err, apperrors.ErrDepartmentAlreadyExists)

	_, err = repos.Departments.GetByID(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	require.NoError(t, repos.Departments.Create(ctx, &models.Department{Name: "Biology", Code: "BIO"}))
	all, err := repos.Departments.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Biology", all[0].Name)
}

func TestSignupRequests_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	_, repos, dept := setup(t)

	req := newRequest(dept.ID, "3520212345671")
	require.NoError(t, repos.SignupRequests.Create(ctx, req))
	assert.NotEqual(t, uuid.Nil, req.ID)
	assert.Equal(t, models.StatusPending, req.Status)

	got, err := repos.SignupRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.StudentName, got.StudentName)

	got.StudentName = "mutated"
	again, err := repos.SignupRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ayesha Khan", again.StudentName)

	_, err = repos.SignupRequests.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)

	err = repos.SignupRequests.Create(ctx, newRequest(dept.ID, "3520212345671"))
	assert.ErrorIs(t, err, apperrors.ErrDuplicatePending)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	err = repos.SignupRequests.Create(ctx, newRequest(42, "3520212345672"))
	assert.ErrorIs(t, err, apperrors.ErrDepartmentNotFound)
}

func TestSignupRequests_Resolve(t *testing.T) {
	ctx := context.Background()
	_, repos, dept := setup(t)

	req := newRequest(dept.ID, "3520212345671")
	require.NoError(t, repos.SignupRequests.Create(ctx, req))

	note := "documents verified"
	res := models.Resolution{Status: models.StatusApproved, Note: &note, ResolvedBy: "admin", ResolvedAt: time.Now().UTC()}
	require.NoError(t, repos.SignupRequests.Resolve(ctx, req.ID, res))

	got, err := repos.SignupRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	require.NotNil(t, got.ResolutionNote)
	assert.Equal(t, note, *got.ResolutionNote)
	require.NotNil(t, got.ResolvedBy)
	assert.Equal(t, "admin", *got.ResolvedBy)

	res.Status = models.StatusDeclined
	err = repos.SignupRequests.Resolve(ctx, req.ID, res)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyResolved)

	err = repos.SignupRequests.Resolve(ctx, uuid.New(), res)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)

	// a resolved request no longer blocks a new pending one for the same applicant
	require.NoError(t, repos.SignupRequests.Create(ctx, newRequest(dept.ID, "3520212345671")))
}

func TestSignupRequests_ResolveConcurrent(t *testing.T) {
	ctx := context.Background()
	_, repos, dept := setup(t)

	req := newRequest(dept.ID, "3520212345671")
	require.NoError(t, repos.SignupRequests.Create(ctx, req))

	const workers = 16
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repos.SignupRequests.Resolve(ctx, req.ID, models.Resolution{
				Status: models.StatusDeclined, ResolvedBy: "c", ResolvedAt: time.Now(),
			})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, apperrors.ErrAlreadyResolved):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, workers-1, conflicts.Load())
}

func TestSignupRequests_List(t *testing.T) {
	ctx := context.Background()
	_, repos, dept := setup(t)
	other := &models.Department{Name: "Physics", Code: "PHY"}
	require.NoError(t, repos.Departments.Create(ctx, other))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		req := newRequest(dept.ID, "352021234567"+string(rune('0'+i)))
		req.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repos.SignupRequests.Create(ctx, req))
		ids = append(ids, req.ID)
	}
	require.NoError(t, repos.SignupRequests.Create(ctx, newRequest(other.ID, "3520299999999")))
	require.NoError(t, repos.SignupRequests.Resolve(ctx, ids[0], models.Resolution{
		Status: models.StatusDeclined, ResolvedBy: "admin", ResolvedAt: time.Now(),
	}))
	require.NoError(t, repos.SignupRequests.MarkNotified(ctx, ids[0], time.Now()))

	pending := models.StatusPending
	notified := true

	tests := []struct {
		name      string
		filter    models.SignupRequestFilter
		wantLen   int
		wantTotal int64
	}{
		{name: "all", filter: models.SignupRequestFilter{}, wantLen: 6, wantTotal: 6},
		{name: "department", filter: models.SignupRequestFilter{DepartmentID: &dept.ID}, wantLen: 5, wantTotal: 5},
		{name: "pending in department", filter: models.SignupRequestFilter{DepartmentID: &dept.ID, Status: &pending}, wantLen: 4, wantTotal: 4},
		{name: "notified", filter: models.SignupRequestFilter{Notified: &notified}, wantLen: 1, wantTotal: 1},
		{name: "second page", filter: models.SignupRequestFilter{DepartmentID: &dept.ID, Page: 2, Size: 2}, wantLen: 2, wantTotal: 5},
		{name: "past the end", filter: models.SignupRequestFilter{Page: 10, Size: 2}, wantLen: 0, wantTotal: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := repos.SignupRequests.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, items, tt.wantLen)
			assert.Equal(t, tt.wantTotal, total)
		})
	}

	items, _, err := repos.SignupRequests.List(ctx, models.SignupRequestFilter{DepartmentID: &dept.ID, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, ids[4], items[0].ID, "newest first")
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	_, repos, dept := setup(t)

	reqID := uuid.New()
	acc := &models.Account{RollNumber: "CS-25-0001", Email: "a@example.com", PasswordHash: "h", DepartmentID: dept.ID, SignupRequestID: reqID}
	require.NoError(t, repos.Accounts.Create(ctx, acc))
	assert.NotEqual(t, uuid.Nil, acc.AuthIdentity)

	err := repos.Accounts.Create(ctx, &models.Account{RollNumber: "CS-25-0001", Email: "b@example.com", SignupRequestID: uuid.New()})
	assert.ErrorIs(t, err, apperrors.ErrRollNumberTaken)

	err = repos.Accounts.Create(ctx, &models.Account{RollNumber: "CS-25-0002", Email: "a@example.com", SignupRequestID: uuid.New()})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyBound)

	require.NoError(t, repos.Accounts.UpdatePasswordHash(ctx, acc.AuthIdentity, "h2"))
	got, err := repos.Accounts.GetBySignupRequestID(ctx, reqID)
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)

	_, err = repos.Accounts.GetBySignupRequestID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	assert.ErrorIs(t, repos.Accounts.UpdatePasswordHash(ctx, uuid.New(), "x"), apperrors.ErrAccountNotFound)
}

func TestSequences(t *testing.T) {
	ctx := context.Background()
	_, repos, dept := setup(t)

	const n = 50
	seen := make(map[int64]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := repos.Sequences.Next(ctx, dept.ID)
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	assert.True(t, seen[1])
	assert.True(t, seen[n])

	v, err := repos.Sequences.Next(ctx, dept.ID+1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}

func TestCoordinators(t *testing.T) {
	ctx := context.Background()
	_, repos, dept := setup(t)

	c := &models.Coordinator{Subject: "coord-1", DepartmentID: dept.ID, Name: "Dr. Sana", IsActive: true}
	require.NoError(t, repos.Coordinators.Upsert(ctx, c))

	got, err := repos.Coordinators.GetBySubject(ctx, "coord-1")
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	require.NoError(t, repos.Coordinators.SetActive(ctx, "coord-1", false))
	got, err = repos.Coordinators.GetBySubject(ctx, "coord-1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, repos.Coordinators.SetActive(ctx, "nobody", true), apperrors.ErrCoordinatorNotFound)
	_, err = repos.Coordinators.GetBySubject(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)

	err = repos.Coordinators.Upsert(ctx, &models.Coordinator{Subject: "coord-2", DepartmentID: 999})
	assert.ErrorIs(t, err, apperrors.ErrDepartmentNotFound)
}

func TestWithinTransaction(t *testing.T) {
	ctx := context.Background()
	db, repos, dept := setup(t)

	req := newRequest(dept.ID, "3520212345671")
	require.NoError(t, repos.SignupRequests.Create(ctx, req))

	boom := errors.New("boom")
	err := db.WithinTransaction(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		require.NoError(t, tx.SignupRequests.Resolve(ctx, req.ID, models.Resolution{
			Status: models.StatusApproved, ResolvedBy: "admin", ResolvedAt: time.Now(),
		}))
		_, err := tx.Sequences.Next(ctx, dept.ID)
		require.NoError(t, err)
		require.NoError(t, tx.Accounts.Create(ctx, &models.Account{
			RollNumber: "CS-25-0001", Email: req.Email, SignupRequestID: req.ID, DepartmentID: dept.ID,
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repos.SignupRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status, "rolled back")
	_, err = repos.Accounts.GetBySignupRequestID(ctx, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	next, err := repos.Sequences.Next(ctx, dept.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, next)

	err = db.WithinTransaction(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		return tx.SignupRequests.Resolve(ctx, req.ID, models.Resolution{
			Status: models.StatusDeclined, ResolvedBy: "admin", ResolvedAt: time.Now(),
		})
	})
	require.NoError(t, err)
	got, err = repos.SignupRequests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, got.Status, "committed")
}

func TestCanceledContext(t *testing.T) {
	db, repos, dept := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repos.Departments.GetByID(ctx, dept.ID)
	assert.ErrorIs(t, err, context.Canceled)

	err = db.WithinTransaction(ctx, func(context.Context, *repositories.Repositories) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
