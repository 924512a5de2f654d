package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
)

type accountRepository struct {
	h handle
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.h.write(ctx, func(st *state) error {
		for _, existing := range st.accounts {
			switch {
			case existing.RollNumber == account.RollNumber:
				return apperrors.ErrRollNumberTaken
			case existing.Email == account.Email:
				return apperrors.ErrEmailAlreadyBound
			case existing.SignupRequestID == account.SignupRequestID:
				return apperrors.ErrAlreadyResolved
			}
		}

		if account.AuthIdentity == uuid.Nil {
			account.AuthIdentity = uuid.New()
		}
		if account.CreatedAt.IsZero() {
			account.CreatedAt = time.Now().UTC()
		}
		st.accounts[account.AuthIdentity] = *account
		return nil
	})
}

func (r *accountRepository) GetBySignupRequestID(ctx context.Context, requestID uuid.UUID) (*models.Account, error) {
	var out *models.Account
	err := r.h.read(ctx, func(st *state) error {
		for _, a := range st.accounts {
			if a.SignupRequestID == requestID {
				out = &a
				return nil
			}
		}
		return apperrors.ErrAccountNotFound
	})
	return out, err
}

func (r *accountRepository) UpdatePasswordHash(ctx context.Context, authIdentity uuid.UUID, hash string) error {
	return r.h.write(ctx, func(st *state) error {
		a, ok := st.accounts[authIdentity]
		if !ok {
			return apperrors.ErrAccountNotFound
		}
		a.PasswordHash = hash
		st.accounts[authIdentity] = a
		return nil
	})
}

type sequenceRepository struct {
	h handle
}

func (r *sequenceRepository) Next(ctx context.Context, departmentID int64) (int64, error) {
	var next int64
	err := r.h.write(ctx, func(st *state) error {
		st.sequences[departmentID]++
		next = st.sequences[departmentID]
		return nil
	})
	return next, err
}
