package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/project-planner/internal/domain"
)

const principalKey = "auth_principal"

// SessionFilter attaches a principal to requests carrying a valid bearer token.
// It never rejects a request; guards decide what anonymous callers may do.
type SessionFilter struct {
	tokens *TokenManager
	logger *zap.Logger
}

// NewSessionFilter constructs the filter.
func NewSessionFilter(tokens *TokenManager, logger *zap.Logger) *SessionFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionFilter{tokens: tokens, logger: logger}
}

// Handle decodes the bearer token when present.
func (f *SessionFilter) Handle(c *fiber.Ctx) error {
	token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return c.Next()
	}

	claims, err := f.tokens.Decode(token)
	if err != nil {
		f.logger.Debug("ignoring invalid bearer token", zap.String("path", c.Path()), zap.Error(err))
		return c.Next()
	}

	c.Locals(principalKey, &domain.Principal{LoginName: claims.LoginName(), Role: claims.Role})
	return c.Next()
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// PrincipalFromContext retrieves the authenticated caller, if any.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok && principal != nil
}
