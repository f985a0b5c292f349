package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/project-planner/internal/auth"
	"github.com/spec-kit/project-planner/internal/domain"
	"github.com/spec-kit/project-planner/internal/repository"
	apperrors "github.com/spec-kit/project-planner/pkg/util/errorutil"
)

// LoginResult is returned on a successful credential check.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService verifies credentials and issues tokens.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	throttle   LoginThrottle
	logger     *zap.Logger
	bcryptCost int
	compare    func(hash, plain string) error

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	Throttle   LoginThrottle
	Logger     *zap.Logger
	BcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	throttle := deps.Throttle
	if throttle == nil {
		throttle = NoopLoginThrottle{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokens:     deps.Tokens,
		throttle:   throttle,
		logger:     logger,
		bcryptCost: deps.BcryptCost,
		compare:    auth.ComparePassword,
	}
}

// Login checks the pair against the credential store and issues a token.
func (s *AuthService) Login(ctx context.Context, loginName, password string) (*LoginResult, error) {
	loginName = strings.TrimSpace(loginName)
	if loginName == "" || strings.TrimSpace(password) == "" {
		return nil, apperrors.NewValidationError("loginName and password are required", nil)
	}
	if !s.throttle.Allowed(ctx, loginName) {
		s.logger.Info("login throttled", zap.String("login_name", loginName))
		return nil, apperrors.NewTooManyRequests("too many failed login attempts")
	}

	user, err := s.users.GetByLoginName(ctx, loginName)
	if errors.Is(err, repository.ErrNotFound) {
		// Same bcrypt work as a wrong password, so timing does not reveal the login exists.
		_ = s.compare(s.unknownUserHash(), password)
		return nil, s.rejectLogin(ctx, loginName)
	}
	if err != nil {
		return nil, err
	}
	if err := s.compare(user.PasswordHash, password); err != nil {
		return nil, s.rejectLogin(ctx, loginName)
	}
	s.throttle.Reset(ctx, loginName)

	token, expiresAt, err := s.tokens.Issue(user.LoginName, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// unknownUserHash is hashed once, at the configured cost, on first use.
func (s *AuthService) unknownUserHash() string {
	s.dummyOnce.Do(func() {
		secret, err := auth.GeneratePassword(generatedPasswordLength)
		if err == nil {
			s.dummyHash, err = auth.HashPassword(secret, s.bcryptCost)
		}
		if err != nil {
			s.logger.Warn("unable to prepare unknown-user hash", zap.Error(err))
		}
	})
	return s.dummyHash
}

func (s *AuthService) rejectLogin(ctx context.Context, loginName string) error {
	s.throttle.RecordFailure(ctx, loginName)
	s.logger.Info("login failed", zap.String("login_name", loginName))
	return apperrors.NewUnauthorized("invalid credentials")
}

// Me returns the caller identity carried by the token.
func (s *AuthService) Me(principal *domain.Principal) (*domain.Principal, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return &domain.Principal{LoginName: principal.LoginName, Role: principal.Role}, nil
}
