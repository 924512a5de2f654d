package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/repositories"
	"github.com/yigit/uniportal/internal/app/repositories/memory"
	"github.com/yigit/uniportal/internal/pkg/auth"
)

func TestFormatRollNumber(t *testing.T) {
	assert.Equal(t, "CS-25-0001", FormatRollNumber("CS", 2025, 1))
	assert.Equal(t, "EE-05-0420", FormatRollNumber("EE", 2005, 420))
	assert.Equal(t, "BIO-30-12345", FormatRollNumber("BIO", 2030, 12345))
}

func TestSessionYear(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		session string
		want    int
	}{
		{session: "2025-2029", want: 2025},
		{session: "Fall 2024", want: 2024},
		{session: "Spring-23", want: 2026},
		{session: "", want: 2026},
	}
	for _, tt := range tests {
		t.Run(tt.session, func(t *testing.T) {
			assert.Equal(t, tt.want, SessionYear(tt.session, created))
		})
	}
}

func TestCredentialIssuer_NewSecret(t *testing.T) {
	issuer := NewCredentialIssuer(CredentialIssuerConfig{PasswordLength: 16, BcryptCost: bcrypt.MinCost})

	a, err := issuer.NewSecret()
	require.NoError(t, err)
	b, err := issuer.NewSecret()
	require.NoError(t, err)

	assert.Len(t, a.plaintext, 16)
	assert.NotEqual(t, a.plaintext, b.plaintext)
	assert.True(t, auth.CheckPassword(a.hash, a.plaintext))
	assert.False(t, auth.CheckPassword(a.hash, b.plaintext))
}

func TestCredentialIssuer_Defaults(t *testing.T) {
	issuer := NewCredentialIssuer(CredentialIssuerConfig{})
	assert.Equal(t, defaultRollNumberRetries, issuer.config.RollNumberRetries)
	assert.Equal(t, defaultPasswordLength, issuer.config.PasswordLength)
	assert.Equal(t, auth.BcryptCost, issuer.config.BcryptCost)
}

func TestCredentialIssuer_IssueAndRotate(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	repos := db.Repositories()
	dept := &models.Department{Name: "Electrical Engineering", Code: "EE"}
	require.NoError(t, repos.Departments.Create(ctx, dept))

	req := &models.SignupRequest{DepartmentID: dept.ID, Email: "bilal@example.edu", CNIC: "3520212345671", JoiningSession: "Fall 2024"}
	require.NoError(t, repos.SignupRequests.Create(ctx, req))

	issuer := NewCredentialIssuer(CredentialIssuerConfig{BcryptCost: bcrypt.MinCost})

	_, err := issuer.Issue(ctx, repos, req, Secret{})
	assert.Error(t, err, "empty secret")

	secret, err := issuer.NewSecret()
	require.NoError(t, err)

	var cred *models.Credential
	require.NoError(t, db.WithinTransaction(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		cred, err = issuer.Issue(ctx, tx, req, secret)
		return err
	}))
	assert.Equal(t, "EE-24-0001", cred.RollNumber)

	_, err = issuer.Issue(ctx, repos, req, secret)
	assert.Error(t, err, "issuing twice for one request must fail")

	account, err := repos.Accounts.GetBySignupRequestID(ctx, req.ID)
	require.NoError(t, err)

	next, err := issuer.NewSecret()
	require.NoError(t, err)
	rotated, err := issuer.Rotate(ctx, repos, account, next)
	require.NoError(t, err)
	assert.Equal(t, cred.RollNumber, rotated.RollNumber)
	assert.NotEqual(t, cred.TemporaryPassword, rotated.TemporaryPassword)

	account, err = repos.Accounts.GetBySignupRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(account.PasswordHash, rotated.TemporaryPassword))
}
