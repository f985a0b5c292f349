package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/project-planner/internal/domain"
	"github.com/spec-kit/project-planner/internal/events"
	"github.com/spec-kit/project-planner/internal/repository"
	apperrors "github.com/spec-kit/project-planner/pkg/util/errorutil"
)

// MilestoneService manages the milestones of a project.
type MilestoneService struct {
	milestones repository.MilestoneRepository
	projects   repository.ProjectRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// MilestoneDependencies bundles requirements for the milestone service.
type MilestoneDependencies struct {
	MilestoneRepo repository.MilestoneRepository
	ProjectRepo   repository.ProjectRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// MilestoneInput describes a milestone write.
type MilestoneInput struct {
	ProjectTitle string
	Title        string
	DueDate      *time.Time
	DateFinished *time.Time
}

// NewMilestoneService constructs the service.
func NewMilestoneService(deps MilestoneDependencies) *MilestoneService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MilestoneService{
		milestones: deps.MilestoneRepo,
		projects:   deps.ProjectRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create adds a milestone to an existing project.
func (s *MilestoneService) Create(ctx context.Context, actor *domain.Principal, input MilestoneInput) (*domain.Milestone, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	projectTitle := strings.TrimSpace(input.ProjectTitle)
	if title == "" || projectTitle == "" {
		return nil, apperrors.NewValidationError("title and projectTitle are required", nil)
	}

	project, err := s.projects.GetByTitle(ctx, projectTitle)
	if err != nil {
		return nil, storeError(err, "project", "title", projectTitle)
	}
	for _, m := range project.Milestones {
		if m.Title == title {
			return nil, milestoneConflict(projectTitle, title)
		}
	}

	milestone := &domain.Milestone{
		ProjectID:    project.ID,
		ProjectTitle: project.Title,
		Title:        title,
		DueDate:      dateOnlyPtr(input.DueDate),
		DateFinished: dateOnlyPtr(input.DateFinished),
	}
	if err := s.milestones.Create(ctx, milestone); err != nil {
		return nil, milestoneStoreError(err, projectTitle, title)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventMilestoneCreated, project.Title, actorName(actor), milestonePayload(milestone)))
	return milestone, nil
}

// ListByProjectTitle returns a project's milestones ordered by due date.
func (s *MilestoneService) ListByProjectTitle(ctx context.Context, projectTitle string) ([]domain.Milestone, error) {
	projectTitle = strings.TrimSpace(projectTitle)
	project, err := s.projects.GetByTitle(ctx, projectTitle)
	if err != nil {
		return nil, storeError(err, "project", "title", projectTitle)
	}
	milestones, err := s.milestones.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	domain.SortMilestonesByDueDate(milestones)
	return milestones, nil
}

// Update rewrites title and dates of a milestone. Milestones cannot move
// between projects.
func (s *MilestoneService) Update(ctx context.Context, actor *domain.Principal, id string, input MilestoneInput) (*domain.Milestone, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	milestone, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if pt := strings.TrimSpace(input.ProjectTitle); pt != "" && pt != milestone.ProjectTitle {
		return nil, apperrors.NewValidationError("milestone belongs to another project", map[string]any{"projectTitle": milestone.ProjectTitle})
	}

	milestone.Title = title
	milestone.DueDate = dateOnlyPtr(input.DueDate)
	milestone.DateFinished = dateOnlyPtr(input.DateFinished)
	if err := s.milestones.Update(ctx, milestone); err != nil {
		return nil, milestoneStoreError(err, milestone.ProjectTitle, title)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventMilestoneUpdated, milestone.ProjectTitle, actorName(actor), milestonePayload(milestone)))
	return milestone, nil
}

// Delete removes a milestone and returns it.
func (s *MilestoneService) Delete(ctx context.Context, actor *domain.Principal, id string) (*domain.Milestone, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	milestone, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.milestones.Delete(ctx, milestone.ID); err != nil {
		return nil, storeError(err, "milestone", "id", id)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventMilestoneDeleted, milestone.ProjectTitle, actorName(actor), milestonePayload(milestone)))
	return milestone, nil
}

// find loads a milestone by id. Ids are UUIDs; anything else cannot exist.
func (s *MilestoneService) find(ctx context.Context, id string) (*domain.Milestone, error) {
	id = strings.TrimSpace(id)
	if uuid.Validate(id) != nil {
		return nil, notFound("milestone", "id", id)
	}
	milestone, err := s.milestones.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "milestone", "id", id)
	}
	return milestone, nil
}

func milestoneConflict(projectTitle, title string) error {
	return apperrors.NewConflict("milestone already exists", map[string]any{"projectTitle": projectTitle, "title": title})
}

func milestoneStoreError(err error, projectTitle, title string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return milestoneConflict(projectTitle, title)
	}
	return storeError(err, "milestone", "title", title)
}

func milestonePayload(m *domain.Milestone) events.MilestonePayload {
	return events.MilestonePayload{MilestoneID: m.ID, ProjectTitle: m.ProjectTitle, Title: m.Title}
}

func dateOnlyPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := dateOnly(*t)
	return &d
}
