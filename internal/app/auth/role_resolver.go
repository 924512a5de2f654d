package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/repositories"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
	jwtauth "github.com/yigit/uniportal/internal/pkg/auth"
	"github.com/yigit/uniportal/internal/pkg/logger"
)

const defaultLookupTimeout = 5 * time.Second

// RoleResolverConfig lists who counts as an administrator
type RoleResolverConfig struct {
	AdminSubjects  []string
	AdminRoleClaim string
	LookupTimeout  time.Duration
}

// RoleResolver maps a verified identity onto Admin, Coordinator(department) or Unauthorized
type RoleResolver struct {
	coordinators   repositories.CoordinatorRepository
	adminSubjects  map[string]struct{}
	adminRoleClaim string
	timeout        time.Duration
}

// NewRoleResolver creates a new RoleResolver
func NewRoleResolver(coordinators repositories.CoordinatorRepository, cfg RoleResolverConfig) *RoleResolver {
	subjects := make(map[string]struct{}, len(cfg.AdminSubjects))
	for _, s := range cfg.AdminSubjects {
		if s = strings.TrimSpace(s); s != "" {
			subjects[s] = struct{}{}
		}
	}
	timeout := cfg.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}

	return &RoleResolver{
		coordinators:   coordinators,
		adminSubjects:  subjects,
		adminRoleClaim: strings.TrimSpace(cfg.AdminRoleClaim),
		timeout:        timeout,
	}
}

// Resolve determines the caller's role. An active coordinator record wins over
// admin membership. Store failures are returned as errors, never as a role.
func (r *RoleResolver) Resolve(ctx context.Context, identity jwtauth.Identity) (models.Role, error) {
	if identity.Subject == "" {
		return models.UnauthorizedRole(), apperrors.ErrMalformedIdentity
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	coordinator, err := r.coordinators.GetBySubject(ctx, identity.Subject)
	switch {
	case err == nil:
		if coordinator.IsActive {
			return models.CoordinatorRole(coordinator.DepartmentID), nil
		}
		logger.Debug().Str("subject", identity.Subject).Msg("Coordinator is inactive")
	case errors.Is(err, apperrors.ErrCoordinatorNotFound):
	case errors.Is(err, apperrors.ErrUnavailable):
		return models.UnauthorizedRole(), err
	default:
		return models.UnauthorizedRole(), apperrors.Unavailable("resolve role", err)
	}

	if r.isAdmin(identity) {
		return models.AdminRole(), nil
	}

	return models.UnauthorizedRole(), nil
}

func (r *RoleResolver) isAdmin(identity jwtauth.Identity) bool {
	if _, ok := r.adminSubjects[identity.Subject]; ok {
		return true
	}
	return r.adminRoleClaim != "" && identity.HasRole(r.adminRoleClaim)
}
