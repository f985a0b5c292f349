package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/project-planner/internal/api/dto"
	"github.com/spec-kit/project-planner/internal/service"
)

// AuthHandler exposes login and identity endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/access_token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	result, err := h.auth.Login(c.UserContext(), req.LoginName, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt}})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	me, err := h.auth.Me(principal(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PrincipalResponse{LoginName: me.LoginName, Role: me.Role}})
}
