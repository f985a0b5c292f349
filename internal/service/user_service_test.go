package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-planner/internal/auth"
	"github.com/spec-kit/project-planner/internal/domain"
	apperrors "github.com/spec-kit/project-planner/pkg/util/errorutil"
)

func newUserFixture(t *testing.T) (*UserService, *memStore) {
	t.Helper()
	store := newMemStore()
	seedUser(t, store, "root", "pw", domain.RoleAdmin)
	return NewUserService(UserDependencies{UserRepo: store.Users(), BcryptCost: testCost}), store
}

func TestUserService_CreateReturnsPasswordOnce(t *testing.T) {
	t.Parallel()
	svc, store := newUserFixture(t)
	ctx := context.Background()

	user, password, err := svc.Create(ctx, admin, " carol ", "user")

	require.NoError(t, err)
	assert.Equal(t, "carol", user.LoginName)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Len(t, password, generatedPasswordLength)

	stored, err := store.Users().GetByLoginName(ctx, "carol")
	require.NoError(t, err)
	assert.NotEqual(t, password, stored.PasswordHash)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, password))
}

func TestUserService_CreateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		actor *domain.Principal
		login string
		role  string
		code  string
	}{
		{name: "anonymous", actor: nil, login: "x", role: "USER", code: "UNAUTHORIZED"},
		{name: "non admin", actor: regular, login: "x", role: "USER", code: "FORBIDDEN"},
		{name: "blank login", actor: admin, login: " ", role: "USER", code: "VALIDATION_FAILED"},
		{name: "unknown role", actor: admin, login: "x", role: "OWNER", code: "VALIDATION_FAILED"},
		{name: "existing login", actor: admin, login: "root", role: "USER", code: "CONFLICT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newUserFixture(t)
			writes := store.writeCount()

			_, password, err := svc.Create(context.Background(), tt.actor, tt.login, tt.role)

			assert.Empty(t, password)
			assert.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
			assert.Equal(t, writes, store.writeCount())
		})
	}
}

func TestUserService_Update(t *testing.T) {
	t.Parallel()
	svc, store := newUserFixture(t)
	ctx := context.Background()
	_, _, err := svc.Create(ctx, admin, "carol", "USER")
	require.NoError(t, err)
	before, err := store.Users().GetByLoginName(ctx, "carol")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, admin, "carol", UserUpdate{NewLoginName: "caroline", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "caroline", updated.LoginName)
	assert.Equal(t, domain.RoleAdmin, updated.Role)
	assert.Equal(t, before.PasswordHash, updated.PasswordHash)

	_, err = svc.Get(ctx, admin, "carol")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, err = svc.Update(ctx, admin, "caroline", UserUpdate{NewLoginName: "root"})
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	_, err = svc.Update(ctx, admin, "caroline", UserUpdate{Role: "GOD"})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = svc.Update(ctx, admin, "nobody", UserUpdate{Role: "USER"})
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, err = svc.Update(ctx, regular, "caroline", UserUpdate{Role: "USER"})
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestUserService_ListAndGet(t *testing.T) {
	t.Parallel()
	svc, _ := newUserFixture(t)
	ctx := context.Background()
	_, _, err := svc.Create(ctx, admin, "carol", "USER")
	require.NoError(t, err)

	users, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "carol", users[0].LoginName)
	assert.Equal(t, "root", users[1].LoginName)

	_, err = svc.List(ctx, regular)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	user, err := svc.Get(ctx, admin, "root")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestUserService_EnsureBootstrapAdmin(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	svc := NewUserService(UserDependencies{UserRepo: store.Users(), BcryptCost: testCost})
	ctx := context.Background()

	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "", ""))
	assert.Zero(t, store.writeCount())

	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "admin", "changeme"))
	user, err := store.Users().GetByLoginName(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "changeme"))

	require.NoError(t, svc.EnsureBootstrapAdmin(ctx, "admin", "other"))
	assert.Equal(t, 1, store.writeCount())

	err = svc.EnsureBootstrapAdmin(ctx, "second", "")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}
