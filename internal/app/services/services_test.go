package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/repositories"
	"github.com/yigit/uniportal/internal/app/repositories/memory"
	"github.com/yigit/uniportal/internal/pkg/email"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg email.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.Message(nil), s.sent...)
}

func (s *recordingSender) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type fixture struct {
	db       *memory.DB
	repos    *repositories.Repositories
	sender   *recordingSender
	notifier *Notifier
	svc      *SignupRequestService
	cs       *models.Department
	phy      *models.Department
}

func newFixture(t *testing.T, issuerCfg ...CredentialIssuerConfig) *fixture {
	t.Helper()
	ctx := context.Background()

	db := memory.New()
	repos := db.Repositories()

	cs := &models.Department{Name: "Computer Science", Code: "CS"}
	phy := &models.Department{Name: "Physics", Code: "PHY"}
	require.NoError(t, repos.Departments.Create(ctx, cs))
	require.NoError(t, repos.Departments.Create(ctx, phy))

	cfg := CredentialIssuerConfig{RollNumberRetries: 5, PasswordLength: 12}
	if len(issuerCfg) > 0 {
		cfg = issuerCfg[0]
	}
	cfg.BcryptCost = bcrypt.MinCost

	sender := &recordingSender{}
	notifier := NewNotifier(sender, repos.SignupRequests, NotifierConfig{PortalURL: "https://portal.example.edu"}, zerolog.Nop())
	svc := NewSignupRequestService(repos, db, NewCredentialIssuer(cfg), notifier, SignupRequestServiceConfig{}, zerolog.Nop())

	return &fixture{db: db, repos: repos, sender: sender, notifier: notifier, svc: svc, cs: cs, phy: phy}
}

func (f *fixture) submit(t *testing.T, dept *models.Department, cnic string) *models.SignupRequest {
	t.Helper()
	req, err := f.svc.Submit(context.Background(), &models.SignupRequest{
		DepartmentID:   dept.ID,
		StudentName:    "Ayesha Khan",
		FatherName:     "Imran Khan",
		CNIC:           cnic,
		Email:          cnic + "@students.example.edu",
		Mobile:         "03001234567",
		City:           "Lahore",
		Qualification:  "FSc Pre-Engineering",
		ObtainedMarks:  950,
		TotalMarks:     1100,
		JoiningSession: "2025-2029",
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, f.notifier.Wait(context.Background()))
}

var errMailDown = errors.New("mail relay down")
