package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-planner/internal/domain"
	apperrors "github.com/spec-kit/project-planner/pkg/util/errorutil"
)

// IsPrivileged reports whether the principal may perform admin operations.
func IsPrivileged(p *domain.Principal) bool {
	return p != nil && p.Role == domain.RoleAdmin
}

// RequireAuthenticated rejects anonymous callers with 401.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdmin rejects anonymous callers with 401 and non-admins with 403.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !IsPrivileged(principal) {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
