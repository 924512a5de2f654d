package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
)

type departmentRepository struct {
	h handle
}

func (r *departmentRepository) Create(ctx context.Context, department *models.Department) error {
	department.Code = strings.ToUpper(strings.TrimSpace(department.Code))
	return r.h.write(ctx, func(st *state) error {
		for _, d := range st.departments {
			if d.Name == department.Name || d.Code == department.Code {
				return apperrors.ErrDepartmentAlreadyExists
			}
		}
		st.lastDeptID++
		department.ID = st.lastDeptID
		department.CreatedAt = time.Now().UTC()
		st.departments[department.ID] = *department
		return nil
	})
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*models.Department, error) {
	var out *models.Department
	err := r.h.read(ctx, func(st *state) error {
		d, ok := st.departments[id]
		if !ok {
			return apperrors.ErrDepartmentNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

func (r *departmentRepository) GetByCode(ctx context.Context, code string) (*models.Department, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var out *models.Department
	err := r.h.read(ctx, func(st *state) error {
		for _, d := range st.departments {
			if d.Code == code {
				out = &d
				return nil
			}
		}
		return apperrors.ErrDepartmentNotFound
	})
	return out, err
}

func (r *departmentRepository) GetAll(ctx context.Context) ([]*models.Department, error) {
	departments := []*models.Department{}
	err := r.h.read(ctx, func(st *state) error {
		for _, d := range st.departments {
			departments = append(departments, &d)
		}
		return nil
	})
	sort.Slice(departments, func(i, j int) bool { return departments[i].Name < departments[j].Name })
	return departments, err
}

type coordinatorRepository struct {
	h handle
}

func (r *coordinatorRepository) GetBySubject(ctx context.Context, subject string) (*models.Coordinator, error) {
	var out *models.Coordinator
	err := r.h.read(ctx, func(st *state) error {
		c, ok := st.coordinators[subject]
		if !ok {
			return apperrors.ErrCoordinatorNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *coordinatorRepository) Upsert(ctx context.Context, c *models.Coordinator) error {
	return r.h.write(ctx, func(st *state) error {
		if _, ok := st.departments[c.DepartmentID]; !ok {
			return apperrors.ErrDepartmentNotFound
		}
		if existing, ok := st.coordinators[c.Subject]; ok {
			c.CreatedAt = existing.CreatedAt
		} else if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		st.coordinators[c.Subject] = *c
		return nil
	})
}

func (r *coordinatorRepository) SetActive(ctx context.Context, subject string, active bool) error {
	return r.h.write(ctx, func(st *state) error {
		c, ok := st.coordinators[subject]
		if !ok {
			return apperrors.ErrCoordinatorNotFound
		}
		c.IsActive = active
		st.coordinators[subject] = c
		return nil
	})
}
