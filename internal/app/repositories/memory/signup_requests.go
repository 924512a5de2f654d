package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
	"github.com/yigit/uniportal/internal/pkg/helpers"
)

type signupRequestRepository struct {
	h handle
}

func (r *signupRequestRepository) Create(ctx context.Context, req *models.SignupRequest) error {
	return r.h.write(ctx, func(st *state) error {
		if _, ok := st.departments[req.DepartmentID]; !ok {
			return apperrors.ErrDepartmentNotFound
		}
		for _, existing := range st.requests {
			if existing.Status == models.StatusPending &&
				existing.DepartmentID == req.DepartmentID &&
				existing.CNIC == req.CNIC {
				return apperrors.ErrDuplicatePending
			}
		}

		if req.ID == uuid.Nil {
			req.ID = uuid.New()
		}
		if req.CreatedAt.IsZero() {
			req.CreatedAt = time.Now().UTC()
		}
		if req.Status == "" {
			req.Status = models.StatusPending
		}
		st.requests[req.ID] = req.Clone()
		return nil
	})
}

func (r *signupRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SignupRequest, error) {
	var out *models.SignupRequest
	err := r.h.read(ctx, func(st *state) error {
		req, ok := st.requests[id]
		if !ok {
			return apperrors.ErrRequestNotFound
		}
		out = req.Clone()
		return nil
	})
	return out, err
}

func (r *signupRequestRepository) List(ctx context.Context, filter models.SignupRequestFilter) ([]*models.SignupRequest, int64, error) {
	var matched []*models.SignupRequest
	err := r.h.read(ctx, func(st *state) error {
		for _, req := range st.requests {
			if filter.Status != nil && req.Status != *filter.Status {
				continue
			}
			if filter.DepartmentID != nil && req.DepartmentID != *filter.DepartmentID {
				continue
			}
			if filter.Notified != nil && (req.NotifiedAt != nil) != *filter.Notified {
				continue
			}
			matched = append(matched, req.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	start, end := helpers.CalculateSliceIndices(filter.Page, filter.Size, len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (r *signupRequestRepository) Resolve(ctx context.Context, id uuid.UUID, res models.Resolution) error {
	return r.h.write(ctx, func(st *state) error {
		req, ok := st.requests[id]
		if !ok {
			return apperrors.ErrRequestNotFound
		}
		if req.Status != models.StatusPending {
			return apperrors.ErrAlreadyResolved
		}

		resolvedAt := res.ResolvedAt
		resolvedBy := res.ResolvedBy
		req.Status = res.Status
		req.ResolvedAt = &resolvedAt
		req.ResolvedBy = &resolvedBy
		req.ResolutionNote = nil
		if res.Note != nil {
			note := *res.Note
			req.ResolutionNote = &note
		}
		return nil
	})
}

func (r *signupRequestRepository) MarkNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.h.write(ctx, func(st *state) error {
		req, ok := st.requests[id]
		if !ok {
			return apperrors.ErrRequestNotFound
		}
		req.NotifiedAt = &at
		return nil
	})
}
