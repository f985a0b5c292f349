package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/project-planner/internal/domain"
	"github.com/spec-kit/project-planner/internal/events"
	apperrors "github.com/spec-kit/project-planner/pkg/util/errorutil"
)

var today = time.Date(2021, 8, 30, 9, 30, 0, 0, time.UTC)

type projectFixture struct {
	store     *memStore
	projects  *ProjectService
	published []events.Event
}

func newProjectFixture(t *testing.T) *projectFixture {
	t.Helper()
	f := &projectFixture{store: newMemStore()}
	seedUser(t, f.store, "root", "pw", domain.RoleAdmin)
	seedUser(t, f.store, "alice", "pw", domain.RoleUser)
	seedUser(t, f.store, "bob", "pw", domain.RoleUser)

	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e)
			return nil
		})
	}

	f.projects = NewProjectService(ProjectDependencies{
		ProjectRepo: f.store.Projects(),
		UserRepo:    f.store.Users(),
		Dispatcher:  dispatcher,
		Clock:       func() time.Time { return today },
	})
	return f
}

func (f *projectFixture) create(t *testing.T, title, customer string) *domain.Project {
	t.Helper()
	project, err := f.projects.Create(context.Background(), admin, ProjectInput{Title: title, Customer: customer})
	require.NoError(t, err)
	return project
}

func TestProjectService_CreateSeedsDefaultMilestones(t *testing.T) {
	t.Parallel()
	f := newProjectFixture(t)
	owner := "alice"

	project, err := f.projects.Create(context.Background(), admin, ProjectInput{
		Title:           " Test ",
		Customer:        "ACME",
		Owner:           &owner,
		Writers:         []string{"bob", "alice", "bob"},
		MotionDesigners: []string{},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, project.ID)
	assert.Equal(t, "Test", project.Title)
	assert.Equal(t, domain.ProjectStatusOpen, project.Status)
	assert.Equal(t, dateOnly(today), project.DateOfReceipt)
	require.NotNil(t, project.Owner)
	assert.Equal(t, "alice", *project.Owner)
	assert.Equal(t, []string{"alice", "bob"}, project.Writers)

	require.Len(t, project.Milestones, len(domain.DefaultMilestones))
	due := project.DateOfReceipt
	for i, tpl := range domain.DefaultMilestones {
		due = AddBusinessDays(due, tpl.BusinessDays)
		m := project.Milestones[i]
		assert.Equal(t, tpl.Title, m.Title)
		require.NotNil(t, m.DueDate)
		assert.Equal(t, due, *m.DueDate)
		assert.Equal(t, project.ID, m.ProjectID)
	}
	assert.Equal(t, "2021-09-13", project.Milestones[0].DueDate.Format(time.DateOnly))

	require.Len(t, f.published, 1)
	assert.Equal(t, events.EventProjectCreated, f.published[0].Type)
	assert.Equal(t, "root", f.published[0].Actor)
}

func TestProjectService_CreateRejections(t *testing.T) {
	t.Parallel()

	missing := "ghost"
	tests := []struct {
		name  string
		actor *domain.Principal
		input ProjectInput
		code  string
	}{
		{name: "anonymous", actor: nil, input: ProjectInput{Title: "New", Customer: "C"}, code: "UNAUTHORIZED"},
		{name: "non admin", actor: regular, input: ProjectInput{Title: "New", Customer: "C"}, code: "FORBIDDEN"},
		{name: "blank title", actor: admin, input: ProjectInput{Title: "  ", Customer: "C"}, code: "VALIDATION_FAILED"},
		{name: "blank customer", actor: admin, input: ProjectInput{Title: "New", Customer: ""}, code: "VALIDATION_FAILED"},
		{name: "existing title", actor: admin, input: ProjectInput{Title: "Test", Customer: "Other"}, code: "CONFLICT"},
		{name: "unknown owner", actor: admin, input: ProjectInput{Title: "New", Customer: "C", Owner: &missing}, code: "NOT_FOUND"},
		{name: "unknown writer", actor: admin, input: ProjectInput{Title: "New", Customer: "C", Writers: []string{"ghost"}}, code: "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProjectFixture(t)
			f.create(t, "Test", "Test")
			writes := f.store.writeCount()

			project, err := f.projects.Create(context.Background(), tt.actor, tt.input)

			assert.Nil(t, project)
			assert.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
			assert.Equal(t, writes, f.store.writeCount(), "store must not be mutated")
		})
	}
}

func TestProjectService_UpdateSameTitleIsInPlace(t *testing.T) {
	t.Parallel()
	f := newProjectFixture(t)
	original := f.create(t, "Test", "Test")

	updated, err := f.projects.Update(context.Background(), admin, "Test", ProjectUpdate{
		NewTitle: "Test",
		Customer: "New Customer",
	})

	require.NoError(t, err)
	assert.Equal(t, "Test", updated.Title)
	assert.Equal(t, "New Customer", updated.Customer)
	assert.Equal(t, original.ID, updated.ID)

	found, err := f.projects.FindByTitle(context.Background(), "Test")
	require.NoError(t, err)
	assert.Equal(t, "New Customer", found.Customer)
	assert.Equal(t, events.EventProjectUpdated, f.published[len(f.published)-1].Type)
}

func TestProjectService_Rename(t *testing.T) {
	t.Parallel()
	f := newProjectFixture(t)
	ctx := context.Background()
	original := f.create(t, "Test", "Test")
	other := f.create(t, "Other", "Someone")

	renamed, err := f.projects.Update(ctx, admin, "Test", ProjectUpdate{NewTitle: "New Title", Customer: "Test"})
	require.NoError(t, err)
	assert.Equal(t, "New Title", renamed.Title)
	assert.Equal(t, "Test", renamed.Customer)
	assert.Equal(t, original.ID, renamed.ID)
	require.Len(t, renamed.Milestones, len(domain.DefaultMilestones))
	for _, m := range renamed.Milestones {
		assert.Equal(t, "New Title", m.ProjectTitle)
	}

	_, err = f.projects.FindByTitle(ctx, "Test")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	found, err := f.projects.FindByTitle(ctx, "New Title")
	require.NoError(t, err)
	assert.Equal(t, "Test", found.Customer)

	last := f.published[len(f.published)-1]
	assert.Equal(t, events.EventProjectRenamed, last.Type)
	assert.Equal(t, events.ProjectRenamedPayload{OldTitle: "Test", NewTitle: "New Title"}, last.Payload)

	writes := f.store.writeCount()
	_, err = f.projects.Update(ctx, admin, "Other", ProjectUpdate{NewTitle: "New Title", Customer: "Someone"})
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	assert.Equal(t, writes, f.store.writeCount())

	survivor, err := f.projects.FindByTitle(ctx, "Other")
	require.NoError(t, err)
	assert.Equal(t, other.ID, survivor.ID)
	assert.Len(t, survivor.Milestones, len(domain.DefaultMilestones))
}

func TestProjectService_UpdateRejections(t *testing.T) {
	t.Parallel()

	bad := domain.ProjectStatus("CLOSED")
	tests := []struct {
		name    string
		actor   *domain.Principal
		current string
		input   ProjectUpdate
		code    string
	}{
		{name: "non admin", actor: regular, current: "Test", input: ProjectUpdate{Customer: "C"}, code: "FORBIDDEN"},
		{name: "missing project", actor: admin, current: "Nope", input: ProjectUpdate{Customer: "C"}, code: "NOT_FOUND"},
		{name: "blank customer", actor: admin, current: "Test", input: ProjectUpdate{NewTitle: "X", Customer: " "}, code: "VALIDATION_FAILED"},
		{name: "invalid status", actor: admin, current: "Test", input: ProjectUpdate{Customer: "C", Status: &bad}, code: "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProjectFixture(t)
			f.create(t, "Test", "Test")
			writes := f.store.writeCount()

			_, err := f.projects.Update(context.Background(), tt.actor, tt.current, tt.input)

			assert.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
			assert.Equal(t, writes, f.store.writeCount())
		})
	}
}

func TestProjectService_UpdateMembersAndStatus(t *testing.T) {
	t.Parallel()
	f := newProjectFixture(t)
	f.create(t, "Test", "Test")
	archived := domain.ProjectStatusArchive
	noOwner := ""
	receipt := time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC)

	updated, err := f.projects.Update(context.Background(), admin, "Test", ProjectUpdate{
		Customer:        "Test",
		Status:          &archived,
		Owner:           &noOwner,
		DateOfReceipt:   &receipt,
		MotionDesigners: []string{"bob"},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusArchive, updated.Status)
	assert.Nil(t, updated.Owner)
	assert.Equal(t, receipt, updated.DateOfReceipt)
	assert.Equal(t, []string{"bob"}, updated.MotionDesigners)
	assert.Empty(t, updated.Writers)
}

func TestProjectService_ArchiveAndRestore(t *testing.T) {
	t.Parallel()
	f := newProjectFixture(t)
	ctx := context.Background()
	f.create(t, "Test", "Test")

	_, err := f.projects.Archive(ctx, regular, "Test")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	project, err := f.projects.Archive(ctx, admin, "Test")
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusArchive, project.Status)

	project, err = f.projects.Restore(ctx, admin, "Test")
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectStatusOpen, project.Status)

	_, err = f.projects.Archive(ctx, admin, "Missing")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestProjectService_FindAllOrdersByNextOpenDueDate(t *testing.T) {
	t.Parallel()
	f := newProjectFixture(t)
	ctx := context.Background()

	later := time.Date(2021, 10, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []ProjectInput{
		{Title: "Alpha", Customer: "C", DateOfReceipt: &earlier},
		{Title: "Beta", Customer: "C", DateOfReceipt: &later},
		{Title: "Gamma", Customer: "C", DateOfReceipt: &earlier},
		{Title: "Delta", Customer: "C"},
	} {
		_, err := f.projects.Create(ctx, admin, in)
		require.NoError(t, err)
	}

	// Alpha and Delta have nothing left to do.
	finished := today
	f.store.mu.Lock()
	for id, m := range f.store.milestones {
		title := f.store.projects[m.ProjectID].Title
		if title == "Alpha" || title == "Delta" {
			m.DateFinished = &finished
			f.store.milestones[id] = m
		}
	}
	f.store.mu.Unlock()

	projects, err := f.projects.FindAll(ctx)
	require.NoError(t, err)

	titles := make([]string, 0, len(projects))
	for _, p := range projects {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"Gamma", "Beta", "Alpha", "Delta"}, titles)
	for _, p := range projects {
		for i := 1; i < len(p.Milestones); i++ {
			assert.False(t, p.Milestones[i].DueDate.Before(*p.Milestones[i-1].DueDate))
		}
	}
}
