package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/project-planner/internal/domain"
	"github.com/spec-kit/project-planner/internal/repository"
)

// memStore backs the fake repositories. writes counts every successful mutation.
type memStore struct {
	mu         sync.Mutex
	users      map[string]domain.User
	projects   map[string]domain.Project
	milestones map[string]domain.Milestone
	writes     int
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]domain.User{},
		projects:   map[string]domain.Project{},
		milestones: map[string]domain.Milestone{},
	}
}

func (s *memStore) Users() repository.UserRepository           { return &fakeUserRepo{s} }
func (s *memStore) Projects() repository.ProjectRepository     { return &fakeProjectRepo{s} }
func (s *memStore) Milestones() repository.MilestoneRepository { return &fakeMilestoneRepo{s} }

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.LoginName == user.LoginName {
			return fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	r.s.writes++
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.s.users {
		if id != user.ID && u.LoginName == user.LoginName {
			return repository.ErrDuplicate
		}
	}
	r.s.users[user.ID] = *user
	r.s.writes++
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByLoginName(_ context.Context, loginName string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.LoginName == loginName {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user by login name: %w", repository.ErrNotFound)
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LoginName < result[j].LoginName })
	return result, nil
}

type fakeProjectRepo struct{ s *memStore }

func (r *fakeProjectRepo) Create(_ context.Context, project *domain.Project, milestones []domain.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.projects {
		if p.Title == project.Title {
			return repository.ErrDuplicate
		}
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	project.Milestones = nil
	for _, m := range milestones {
		m.ID = uuid.NewString()
		m.ProjectID = project.ID
		m.ProjectTitle = project.Title
		r.s.milestones[m.ID] = m
		project.Milestones = append(project.Milestones, m)
	}
	stored := *project.Clone()
	stored.Milestones = nil
	r.s.projects[project.ID] = stored
	r.s.writes++
	return nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *domain.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[project.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, p := range r.s.projects {
		if id != project.ID && p.Title == project.Title {
			return repository.ErrDuplicate
		}
	}
	stored := *project.Clone()
	stored.Milestones = nil
	r.s.projects[project.ID] = stored
	r.s.writes++
	return nil
}

func (r *fakeProjectRepo) GetByTitle(_ context.Context, title string) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.projects {
		if p.Title == title {
			return r.s.withMilestones(p), nil
		}
	}
	return nil, fmt.Errorf("get project: %w", repository.ErrNotFound)
}

func (r *fakeProjectRepo) List(_ context.Context) ([]domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]domain.Project, 0, len(r.s.projects))
	for _, p := range r.s.projects {
		result = append(result, *r.s.withMilestones(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}

// withMilestones must be called with mu held.
func (s *memStore) withMilestones(p domain.Project) *domain.Project {
	cp := p.Clone()
	for _, m := range s.milestones {
		if m.ProjectID == p.ID {
			m.ProjectTitle = p.Title
			cp.Milestones = append(cp.Milestones, m)
		}
	}
	sort.Slice(cp.Milestones, func(i, j int) bool { return cp.Milestones[i].Title < cp.Milestones[j].Title })
	return cp
}

type fakeMilestoneRepo struct{ s *memStore }

func (r *fakeMilestoneRepo) Create(_ context.Context, milestone *domain.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[milestone.ProjectID]; !ok {
		return fmt.Errorf("insert milestone: missing project %s", milestone.ProjectID)
	}
	for _, m := range r.s.milestones {
		if m.ProjectID == milestone.ProjectID && m.Title == milestone.Title {
			return repository.ErrDuplicate
		}
	}
	if milestone.ID == "" {
		milestone.ID = uuid.NewString()
	}
	r.s.milestones[milestone.ID] = *milestone
	r.s.writes++
	return nil
}

func (r *fakeMilestoneRepo) Update(_ context.Context, milestone *domain.Milestone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.milestones[milestone.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, m := range r.s.milestones {
		if id != milestone.ID && m.ProjectID == milestone.ProjectID && m.Title == milestone.Title {
			return repository.ErrDuplicate
		}
	}
	r.s.milestones[milestone.ID] = *milestone
	r.s.writes++
	return nil
}

func (r *fakeMilestoneRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.milestones[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.milestones, id)
	r.s.writes++
	return nil
}

func (r *fakeMilestoneRepo) GetByID(_ context.Context, id string) (*domain.Milestone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.milestones[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m.ProjectTitle = r.s.projects[m.ProjectID].Title
	return &m, nil
}

func (r *fakeMilestoneRepo) ListByProject(_ context.Context, projectID string) ([]domain.Milestone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Milestone
	for _, m := range r.s.milestones {
		if m.ProjectID == projectID {
			m.ProjectTitle = r.s.projects[projectID].Title
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}

// fakeThrottle counts calls and blocks once failures reach max.
type fakeThrottle struct {
	max      int
	failures map[string]int
	resets   int
}

func newFakeThrottle(max int) *fakeThrottle {
	return &fakeThrottle{max: max, failures: map[string]int{}}
}

func (t *fakeThrottle) Allowed(_ context.Context, loginName string) bool {
	return t.failures[loginName] < t.max
}

func (t *fakeThrottle) RecordFailure(_ context.Context, loginName string) {
	t.failures[loginName]++
}

func (t *fakeThrottle) Reset(_ context.Context, loginName string) {
	delete(t.failures, loginName)
	t.resets++
}

var (
	admin    = &domain.Principal{LoginName: "root", Role: domain.RoleAdmin}
	regular  = &domain.Principal{LoginName: "bob", Role: domain.RoleUser}
	testCost = 4
)
