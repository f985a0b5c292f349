package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/project-planner/internal/auth"
	"github.com/spec-kit/project-planner/internal/domain"
	"github.com/spec-kit/project-planner/internal/events"
	"github.com/spec-kit/project-planner/internal/repository"
	apperrors "github.com/spec-kit/project-planner/pkg/util/errorutil"
)

const generatedPasswordLength = 12

// UserService provisions and maintains credential records.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// UserDependencies bundles requirements for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
}

// UserUpdate carries the mutable attributes of a user. Empty fields are left unchanged.
type UserUpdate struct {
	NewLoginName string
	Role         string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: deps.BcryptCost,
	}
}

// List returns all users ordered by login name.
func (s *UserService) List(ctx context.Context, actor *domain.Principal) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, actor *domain.Principal, loginName string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByLoginName(ctx, strings.TrimSpace(loginName))
	if err != nil {
		return nil, storeError(err, "user", "loginName", loginName)
	}
	return user, nil
}

// Create provisions a user with a random password. The clear-text password is
// returned to the caller once and never stored.
func (s *UserService) Create(ctx context.Context, actor *domain.Principal, loginName, role string) (*domain.User, string, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, "", err
	}
	loginName = strings.TrimSpace(loginName)
	if loginName == "" {
		return nil, "", apperrors.NewValidationError("loginName is required", nil)
	}
	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return nil, "", apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}
	if err := s.ensureLoginFree(ctx, loginName); err != nil {
		return nil, "", err
	}

	password, err := auth.GeneratePassword(generatedPasswordLength)
	if err != nil {
		return nil, "", err
	}
	user, err := s.create(ctx, loginName, password, parsedRole)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user created", zap.String("login_name", user.LoginName), zap.String("role", string(user.Role)))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserCreated, user.LoginName, actorName(actor), events.UserPayload{Role: string(user.Role)}))
	return user, password, nil
}

// Update changes login name and/or role. The password hash is never touched.
func (s *UserService) Update(ctx context.Context, actor *domain.Principal, loginName string, input UserUpdate) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	loginName = strings.TrimSpace(loginName)
	user, err := s.users.GetByLoginName(ctx, loginName)
	if err != nil {
		return nil, storeError(err, "user", "loginName", loginName)
	}

	if input.Role != "" {
		role, err := domain.ParseRole(input.Role)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
		}
		user.Role = role
	}
	if newName := strings.TrimSpace(input.NewLoginName); newName != "" && newName != user.LoginName {
		if err := s.ensureLoginFree(ctx, newName); err != nil {
			return nil, err
		}
		user.LoginName = newName
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeError(err, "user", "loginName", user.LoginName)
	}

	s.logger.Info("user updated", zap.String("login_name", loginName), zap.String("new_login_name", user.LoginName))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserUpdated, user.LoginName, actorName(actor), events.UserPayload{Role: string(user.Role)}))
	return user, nil
}

// EnsureBootstrapAdmin creates the configured admin account if it does not exist yet.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, loginName, password string) error {
	loginName = strings.TrimSpace(loginName)
	if loginName == "" {
		return nil
	}
	if password == "" {
		return apperrors.NewValidationError("bootstrap admin password is required", nil)
	}

	_, err := s.users.GetByLoginName(ctx, loginName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if _, err := s.create(ctx, loginName, password, domain.RoleAdmin); err != nil {
		if apperrors.IsCode(err, "CONFLICT") {
			return nil
		}
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("login_name", loginName))
	return nil
}

func (s *UserService) ensureLoginFree(ctx context.Context, loginName string) error {
	_, err := s.users.GetByLoginName(ctx, loginName)
	if err == nil {
		return apperrors.NewConflict("user already exists", map[string]any{"loginName": loginName})
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func (s *UserService) create(ctx context.Context, loginName, password string, role domain.Role) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		LoginName:    loginName,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeError(err, "user", "loginName", loginName)
	}
	return user, nil
}
