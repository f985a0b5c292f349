package handlers

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-planner/internal/api/dto"
	"github.com/spec-kit/project-planner/internal/auth"
	"github.com/spec-kit/project-planner/internal/domain"
	apperrors "github.com/spec-kit/project-planner/pkg/util/errorutil"
)

// pathParam returns the decoded route parameter.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// principal returns the caller, or nil for anonymous requests.
func principal(c *fiber.Ctx) *domain.Principal {
	p, _ := auth.PrincipalFromContext(c)
	return p
}

func parseDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, strings.TrimSpace(*value))
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date", map[string]any{"field": field, "expected": dto.DateLayout})
	}
	return &t, nil
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}
