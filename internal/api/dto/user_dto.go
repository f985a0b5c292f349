package dto

import (
	"time"

	"github.com/spec-kit/project-planner/internal/domain"
)

// LoginRequest payload for POST /auth/access_token.
type LoginRequest struct {
	LoginName string `json:"loginName"`
	Password  string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PrincipalResponse describes the caller.
type PrincipalResponse struct {
	LoginName string      `json:"loginName"`
	Role      domain.Role `json:"role"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	LoginName string `json:"loginName"`
	Role      string `json:"role"`
}

// UpdateUserRequest payload. Empty fields keep their current value.
type UpdateUserRequest struct {
	LoginName string `json:"loginName"`
	Role      string `json:"role"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	LoginName string      `json:"loginName"`
	Role      domain.Role `json:"role"`
}

// CreatedUserResponse includes the generated password, shown once.
type CreatedUserResponse struct {
	LoginName string      `json:"loginName"`
	Role      domain.Role `json:"role"`
	Password  string      `json:"password"`
}

// NewUserResponse maps a stored user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{LoginName: u.LoginName, Role: u.Role}
}
