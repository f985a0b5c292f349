package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/project-planner/internal/domain"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (login name, project title,
	// milestone title within a project) is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByLoginName(ctx context.Context, loginName string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// ProjectRepository persists projects together with their members. Reads
// return milestones as well.
type ProjectRepository interface {
	// Create stores the project and its initial milestones atomically.
	Create(ctx context.Context, project *domain.Project, milestones []domain.Milestone) error
	// Update rewrites all mutable attributes, including the title, of the
	// project identified by project.ID.
	Update(ctx context.Context, project *domain.Project) error
	GetByTitle(ctx context.Context, title string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
}

// MilestoneRepository persists milestones keyed by their own ID.
type MilestoneRepository interface {
	Create(ctx context.Context, milestone *domain.Milestone) error
	Update(ctx context.Context, milestone *domain.Milestone) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Milestone, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Milestone, error)
}
