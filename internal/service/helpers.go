package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/project-planner/internal/auth"
	"github.com/spec-kit/project-planner/internal/domain"
	"github.com/spec-kit/project-planner/internal/events"
	"github.com/spec-kit/project-planner/internal/repository"
	apperrors "github.com/spec-kit/project-planner/pkg/util/errorutil"
)

// requireAdmin is the authorization gate every mutating operation runs
// before it reads or writes storage.
func requireAdmin(actor *domain.Principal) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !auth.IsPrivileged(actor) {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

func notFound(resource, key, value string) error {
	return apperrors.NewNotFound(resource, map[string]any{key: value})
}

// storeError maps repository sentinels to domain errors and passes anything else through.
func storeError(err error, resource, key, value string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound(resource, key, value)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", map[string]any{key: value})
	}
	return err
}

func actorName(actor *domain.Principal) string {
	if actor == nil {
		return ""
	}
	return actor.LoginName
}

// publish delivers the event; handler failures are logged, never returned.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
