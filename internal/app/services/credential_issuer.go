package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/repositories"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
	"github.com/yigit/uniportal/internal/pkg/auth"
	"github.com/yigit/uniportal/internal/pkg/logger"
)

const (
	defaultRollNumberRetries = 5
	defaultPasswordLength    = 12
)

var sessionYearPattern = regexp.MustCompile(`(?:19|20)\d{2}`)

// CredentialIssuerConfig tunes roll number allocation and password generation
type CredentialIssuerConfig struct {
	RollNumberRetries int
	PasswordLength    int
	// BcryptCost defaults to auth.BcryptCost
	BcryptCost int
}

// Secret is a generated temporary password and its hash. Generate it before
// opening a transaction; hashing is slow.
type Secret struct {
	plaintext string
	hash      string
}

// CredentialIssuer provisions login accounts for approved signup requests
type CredentialIssuer struct {
	config CredentialIssuerConfig
}

// NewCredentialIssuer creates a new CredentialIssuer
func NewCredentialIssuer(config CredentialIssuerConfig) *CredentialIssuer {
	if config.RollNumberRetries < 1 {
		config.RollNumberRetries = defaultRollNumberRetries
	}
	if config.PasswordLength < auth.MinTemporaryPasswordLength {
		config.PasswordLength = defaultPasswordLength
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = auth.BcryptCost
	}
	return &CredentialIssuer{config: config}
}

// NewSecret generates a one-time password from crypto/rand and hashes it
func (i *CredentialIssuer) NewSecret() (Secret, error) {
	password, err := auth.GenerateTemporaryPassword(i.config.PasswordLength)
	if err != nil {
		return Secret{}, fmt.Errorf("generate temporary password: %w", err)
	}
	hash, err := auth.HashPasswordWithCost(password, i.config.BcryptCost)
	if err != nil {
		return Secret{}, fmt.Errorf("hash temporary password: %w", err)
	}
	return Secret{plaintext: password, hash: hash}, nil
}

// Issue creates the account for req using repos, which must be bound to the
// transaction that also resolves req. It is not idempotent: a second call for
// the same request fails on the account's request binding.
func (i *CredentialIssuer) Issue(ctx context.Context, repos *repositories.Repositories, req *models.SignupRequest, secret Secret) (*models.Credential, error) {
	if secret.hash == "" {
		return nil, errors.New("credential issuer: empty secret")
	}

	department, err := repos.Departments.GetByID(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	year := SessionYear(req.JoiningSession, req.CreatedAt)

	for attempt := 1; attempt <= i.config.RollNumberRetries; attempt++ {
		seq, err := repos.Sequences.Next(ctx, department.ID)
		if err != nil {
			return nil, err
		}

		account := &models.Account{
			RollNumber:      FormatRollNumber(department.Code, year, seq),
			Email:           req.Email,
			PasswordHash:    secret.hash,
			DepartmentID:    department.ID,
			SignupRequestID: req.ID,
		}

		err = repos.Accounts.Create(ctx, account)
		switch {
		case err == nil:
			return &models.Credential{
				RollNumber:        account.RollNumber,
				TemporaryPassword: secret.plaintext,
			}, nil
		case errors.Is(err, apperrors.ErrRollNumberTaken):
			logger.Warn().
				Str("requestId", req.ID.String()).
				Str("rollNumber", account.RollNumber).
				Int("attempt", attempt).
				Msg("Roll number already taken, allocating the next one")
			continue
		default:
			return nil, err
		}
	}

	return nil, apperrors.Unavailable("allocate roll number",
		fmt.Errorf("%d consecutive roll numbers were taken in department %s", i.config.RollNumberRetries, department.Code))
}

// Rotate replaces the password of an existing account, returning the new one-time credential
func (i *CredentialIssuer) Rotate(ctx context.Context, repos *repositories.Repositories, account *models.Account, secret Secret) (*models.Credential, error) {
	if secret.hash == "" {
		return nil, errors.New("credential issuer: empty secret")
	}
	if err := repos.Accounts.UpdatePasswordHash(ctx, account.AuthIdentity, secret.hash); err != nil {
		return nil, err
	}
	return &models.Credential{
		RollNumber:        account.RollNumber,
		TemporaryPassword: secret.plaintext,
	}, nil
}

// FormatRollNumber renders <CODE>-<YY>-<NNNN>, e.g. CS-25-0042
func FormatRollNumber(code string, year int, seq int64) string {
	return fmt.Sprintf("%s-%02d-%04d", code, year%100, seq)
}

// SessionYear takes the first year found in a joining session such as
// "2025-2029" or "Fall 2025", falling back to the year of createdAt.
func SessionYear(session string, createdAt time.Time) int {
	if m := sessionYearPattern.FindString(session); m != "" {
		if year, err := strconv.Atoi(m); err == nil {
			return year
		}
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return createdAt.Year()
}
