package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/uniportal/internal/app/models"
	"github.com/yigit/uniportal/internal/app/models/dto"
	"github.com/yigit/uniportal/internal/pkg/apperrors"
	"github.com/yigit/uniportal/internal/pkg/auth"
)

const (
	identityKey = "identity"
	roleKey     = "role"
)

// RoleResolver maps a verified identity to a role
type RoleResolver interface {
	Resolve(ctx context.Context, identity auth.Identity) (models.Role, error)
}

// AuthMiddleware verifies bearer tokens and resolves the caller's role
type AuthMiddleware struct {
	jwtService *auth.JWTService
	resolver   RoleResolver
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, resolver RoleResolver) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		resolver:   resolver,
	}
}

// Authenticate requires a valid bearer token and stores the identity and
// resolved role in the context. It never falls back to a default role.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		identity, err := m.jwtService.ExtractIdentity(tokenString)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed").
				WithDetails("Invalid token")
			if errors.Is(err, apperrors.ErrTokenExpired) {
				errorDetail = dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Authentication failed").
					WithDetails("Token has expired")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		role, err := m.resolver.Resolve(c.Request.Context(), *identity)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		c.Set(identityKey, *identity)
		c.Set(roleKey, role)
		c.Next()
	}
}

// RequireReviewer rejects callers that are neither an administrator nor an active coordinator
func (m *AuthMiddleware) RequireReviewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetRole(c).IsAuthorized() {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("Only administrators and department coordinators may review signup requests")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}
		c.Next()
	}
}

// GetRole returns the role stored by Authenticate, or Unauthorized
func GetRole(c *gin.Context) models.Role {
	if v, ok := c.Get(roleKey); ok {
		if role, ok := v.(models.Role); ok {
			return role
		}
	}
	return models.UnauthorizedRole()
}

// GetIdentity returns the identity stored by Authenticate
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := v.(auth.Identity)
	return identity, ok
}
