package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/project-planner/internal/domain"
	"github.com/spec-kit/project-planner/internal/events"
	"github.com/spec-kit/project-planner/internal/repository"
	apperrors "github.com/spec-kit/project-planner/pkg/util/errorutil"
)

// ProjectService owns project identity: title uniqueness and title changes.
type ProjectService struct {
	projects   repository.ProjectRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// ProjectDependencies bundles requirements for the project service.
type ProjectDependencies struct {
	ProjectRepo repository.ProjectRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// ProjectInput describes a new project.
type ProjectInput struct {
	Title           string
	Customer        string
	DateOfReceipt   *time.Time
	Owner           *string
	Writers         []string
	MotionDesigners []string
}

// ProjectUpdate describes changes to an existing project. Nil fields are left
// unchanged; a non-nil empty slice clears the member list.
type ProjectUpdate struct {
	NewTitle        string
	Customer        string
	DateOfReceipt   *time.Time
	Status          *domain.ProjectStatus
	Owner           *string
	Writers         []string
	MotionDesigners []string
}

// NewProjectService constructs the service.
func NewProjectService(deps ProjectDependencies) *ProjectService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ProjectService{
		projects:   deps.ProjectRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// Create validates and stores a new project together with its default milestones.
func (s *ProjectService) Create(ctx context.Context, actor *domain.Principal, input ProjectInput) (*domain.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	customer := strings.TrimSpace(input.Customer)
	if err := validateProjectFields(title, customer); err != nil {
		return nil, err
	}
	if err := s.ensureTitleFree(ctx, title); err != nil {
		return nil, err
	}

	project := &domain.Project{
		Title:         title,
		Customer:      customer,
		DateOfReceipt: dateOnly(s.now()),
		Status:        domain.ProjectStatusOpen,
	}
	if input.DateOfReceipt != nil {
		project.DateOfReceipt = dateOnly(*input.DateOfReceipt)
	}
	if err := s.applyMembers(ctx, project, input.Owner, input.Writers, input.MotionDesigners); err != nil {
		return nil, err
	}

	if err := s.projects.Create(ctx, project, defaultMilestones(project.DateOfReceipt)); err != nil {
		return nil, storeError(err, "project", "title", title)
	}
	domain.SortMilestonesByDueDate(project.Milestones)

	s.logger.Info("project created", zap.String("title", project.Title), zap.String("id", project.ID))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventProjectCreated, project.Title, actorName(actor), nil))
	return project, nil
}

// FindByTitle returns the project with its milestones sorted by due date.
func (s *ProjectService) FindByTitle(ctx context.Context, title string) (*domain.Project, error) {
	title = strings.TrimSpace(title)
	project, err := s.projects.GetByTitle(ctx, title)
	if err != nil {
		return nil, storeError(err, "project", "title", title)
	}
	domain.SortMilestonesByDueDate(project.Milestones)
	return project, nil
}

// FindAll lists projects with open milestones first, earliest open due date
// leading, followed by the rest ordered by title.
func (s *ProjectService) FindAll(ctx context.Context) ([]domain.Project, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		domain.SortMilestonesByDueDate(projects[i].Milestones)
	}
	sortProjectsByNextDue(projects)
	return projects, nil
}

// Update changes a project in place. A different NewTitle renames it; the new
// title must be free, and the check runs before anything is written.
func (s *ProjectService) Update(ctx context.Context, actor *domain.Principal, currentTitle string, input ProjectUpdate) (*domain.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	currentTitle = strings.TrimSpace(currentTitle)
	existing, err := s.projects.GetByTitle(ctx, currentTitle)
	if err != nil {
		return nil, storeError(err, "project", "title", currentTitle)
	}

	customer := strings.TrimSpace(input.Customer)
	if customer == "" {
		return nil, apperrors.NewValidationError("customer is required", map[string]any{"field": "customer"})
	}

	project := existing.Clone()
	project.Customer = customer

	newTitle := strings.TrimSpace(input.NewTitle)
	renamed := newTitle != "" && newTitle != existing.Title
	if renamed {
		if err := s.ensureTitleFree(ctx, newTitle); err != nil {
			return nil, err
		}
		project.Title = newTitle
	}

	if input.DateOfReceipt != nil {
		project.DateOfReceipt = dateOnly(*input.DateOfReceipt)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": string(*input.Status)})
		}
		project.Status = *input.Status
	}
	if err := s.applyMembers(ctx, project, input.Owner, input.Writers, input.MotionDesigners); err != nil {
		return nil, err
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, storeError(err, "project", "title", project.Title)
	}

	if renamed {
		s.logger.Info("project renamed", zap.String("old_title", existing.Title), zap.String("new_title", project.Title))
		publish(ctx, s.dispatcher, s.logger, events.New(events.EventProjectRenamed, project.Title, actorName(actor),
			events.ProjectRenamedPayload{OldTitle: existing.Title, NewTitle: project.Title}))
	} else {
		publish(ctx, s.dispatcher, s.logger, events.New(events.EventProjectUpdated, project.Title, actorName(actor), nil))
	}
	return s.FindByTitle(ctx, project.Title)
}

// Archive moves a project to ARCHIVE.
func (s *ProjectService) Archive(ctx context.Context, actor *domain.Principal, title string) (*domain.Project, error) {
	return s.setStatus(ctx, actor, title, domain.ProjectStatusArchive, events.EventProjectArchived)
}

// Restore moves an archived project back to OPEN.
func (s *ProjectService) Restore(ctx context.Context, actor *domain.Principal, title string) (*domain.Project, error) {
	return s.setStatus(ctx, actor, title, domain.ProjectStatusOpen, events.EventProjectRestored)
}

func (s *ProjectService) setStatus(ctx context.Context, actor *domain.Principal, title string, status domain.ProjectStatus, eventType events.EventType) (*domain.Project, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	project, err := s.projects.GetByTitle(ctx, title)
	if err != nil {
		return nil, storeError(err, "project", "title", title)
	}
	if project.Status == status {
		domain.SortMilestonesByDueDate(project.Milestones)
		return project, nil
	}

	project.Status = status
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, storeError(err, "project", "title", title)
	}
	domain.SortMilestonesByDueDate(project.Milestones)

	s.logger.Info("project status changed", zap.String("title", title), zap.String("status", string(status)))
	publish(ctx, s.dispatcher, s.logger, events.New(eventType, title, actorName(actor), nil))
	return project, nil
}

func (s *ProjectService) ensureTitleFree(ctx context.Context, title string) error {
	_, err := s.projects.GetByTitle(ctx, title)
	if err == nil {
		return apperrors.NewConflict("project already exists", map[string]any{"title": title})
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// applyMembers resolves login names against the credential store. Nil
// arguments keep the project's current value.
func (s *ProjectService) applyMembers(ctx context.Context, project *domain.Project, owner *string, writers, motionDesigners []string) error {
	if owner != nil {
		name := strings.TrimSpace(*owner)
		if name == "" {
			project.Owner = nil
		} else {
			if err := s.ensureUser(ctx, name); err != nil {
				return err
			}
			project.Owner = &name
		}
	}
	if writers != nil {
		resolved, err := s.resolveUsers(ctx, writers)
		if err != nil {
			return err
		}
		project.Writers = resolved
	}
	if motionDesigners != nil {
		resolved, err := s.resolveUsers(ctx, motionDesigners)
		if err != nil {
			return err
		}
		project.MotionDesigners = resolved
	}
	return nil
}

func (s *ProjectService) resolveUsers(ctx context.Context, names []string) ([]string, error) {
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		if err := s.ensureUser(ctx, name); err != nil {
			return nil, err
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

func (s *ProjectService) ensureUser(ctx context.Context, loginName string) error {
	if _, err := s.users.GetByLoginName(ctx, loginName); err != nil {
		return storeError(err, "user", "loginName", loginName)
	}
	return nil
}

func validateProjectFields(title, customer string) error {
	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if customer == "" {
		missing = append(missing, "customer")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("required fields missing", map[string]any{"fields": missing})
	}
	return nil
}

// defaultMilestones chains the templates, each due after the previous one.
func defaultMilestones(dateOfReceipt time.Time) []domain.Milestone {
	milestones := make([]domain.Milestone, 0, len(domain.DefaultMilestones))
	due := dateOfReceipt
	for _, tpl := range domain.DefaultMilestones {
		due = AddBusinessDays(due, tpl.BusinessDays)
		d := due
		milestones = append(milestones, domain.Milestone{Title: tpl.Title, DueDate: &d})
	}
	return milestones
}

func nextOpenDue(project domain.Project) *time.Time {
	var next *time.Time
	for _, m := range project.Milestones {
		if !m.Open() || m.DueDate == nil {
			continue
		}
		if next == nil || m.DueDate.Before(*next) {
			next = m.DueDate
		}
	}
	return next
}

func sortProjectsByNextDue(projects []domain.Project) {
	next := make(map[string]*time.Time, len(projects))
	for _, p := range projects {
		next[p.ID] = nextOpenDue(p)
	}
	sort.SliceStable(projects, func(i, j int) bool {
		a, b := next[projects[i].ID], next[projects[j].ID]
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return projects[i].Title < projects[j].Title
	})
}
