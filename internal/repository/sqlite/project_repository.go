package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/project-planner/internal/domain"
	"github.com/spec-kit/project-planner/internal/repository"
)

const (
	memberKindWriter       = "WRITER"
	memberKindMotionDesign = "MOTION_DESIGN"
)

// ProjectRepository stores projects, their members and milestones in SQLite.
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) repository.ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project, milestones []domain.Milestone) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if project.ID == "" {
			project.ID = uuid.NewString()
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO projects (id, title, customer, date_of_receipt, status, owner_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, (SELECT id FROM users WHERE login_name = ?), ?, ?)`,
			project.ID,
			project.Title,
			project.Customer,
			project.DateOfReceipt,
			string(project.Status),
			project.Owner,
			now,
			now,
		); err != nil {
			return translate("insert project", err)
		}
		project.CreatedAt = now
		project.UpdatedAt = now

		if err := insertMembers(ctx, tx, project); err != nil {
			return err
		}

		project.Milestones = project.Milestones[:0]
		for i := range milestones {
			m := milestones[i]
			m.ProjectID = project.ID
			if err := insertMilestone(ctx, tx, &m); err != nil {
				return err
			}
			m.ProjectTitle = project.Title
			project.Milestones = append(project.Milestones, m)
		}
		return nil
	})
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx, `
UPDATE projects SET title = ?, customer = ?, date_of_receipt = ?, status = ?,
	owner_id = (SELECT id FROM users WHERE login_name = ?), updated_at = ?
WHERE id = ?`,
			project.Title,
			project.Customer,
			project.DateOfReceipt,
			string(project.Status),
			project.Owner,
			now,
			project.ID,
		)
		if err != nil {
			return translate("update project", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return translate("update project", sql.ErrNoRows)
		}
		project.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = ?`, project.ID); err != nil {
			return translate("clear project members", err)
		}
		return insertMembers(ctx, tx, project)
	})
}

func (r *ProjectRepository) GetByTitle(ctx context.Context, title string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT p.id, p.title, p.customer, p.date_of_receipt, p.status, u.login_name, p.created_at, p.updated_at
FROM projects p LEFT JOIN users u ON u.id = p.owner_id
WHERE p.title = ?`,
		title,
	)
	project, err := scanProject(row)
	if err != nil {
		return nil, err
	}

	byID := map[string]*domain.Project{project.ID: project}
	if err := loadMembers(ctx, r.db, byID, `WHERE pm.project_id = ?`, project.ID); err != nil {
		return nil, err
	}
	if err := loadMilestones(ctx, r.db, byID, `WHERE m.project_id = ?`, project.ID); err != nil {
		return nil, err
	}
	return project, nil
}

func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.title, p.customer, p.date_of_receipt, p.status, u.login_name, p.created_at, p.updated_at
FROM projects p LEFT JOIN users u ON u.id = p.owner_id
ORDER BY p.title`)
	if err != nil {
		return nil, translate("list projects", err)
	}

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, translate("list projects", err)
	}
	rows.Close()

	byID := make(map[string]*domain.Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}
	if err := loadMembers(ctx, r.db, byID, ""); err != nil {
		return nil, err
	}
	if err := loadMilestones(ctx, r.db, byID, ""); err != nil {
		return nil, err
	}
	return projects, nil
}

func scanProject(row scanner) (*domain.Project, error) {
	var (
		project domain.Project
		status  string
	)
	if err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Customer,
		&project.DateOfReceipt,
		&status,
		&project.Owner,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, translate("scan project", err)
	}
	project.Status = domain.ProjectStatus(status)
	return &project, nil
}

func insertMembers(ctx context.Context, q dbtx, project *domain.Project) error {
	const query = `
INSERT OR IGNORE INTO project_members (project_id, user_id, kind)
SELECT ?, id, ? FROM users WHERE login_name = ?`

	for _, login := range project.Writers {
		if _, err := q.ExecContext(ctx, query, project.ID, memberKindWriter, login); err != nil {
			return translate("insert writer", err)
		}
	}
	for _, login := range project.MotionDesigners {
		if _, err := q.ExecContext(ctx, query, project.ID, memberKindMotionDesign, login); err != nil {
			return translate("insert motion designer", err)
		}
	}
	return nil
}

func loadMembers(ctx context.Context, q dbtx, byID map[string]*domain.Project, where string, args ...any) error {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
SELECT pm.project_id, u.login_name, pm.kind
FROM project_members pm JOIN users u ON u.id = pm.user_id
%s
ORDER BY u.login_name`, where), args...)
	if err != nil {
		return translate("list project members", err)
	}
	defer rows.Close()

	for rows.Next() {
		var projectID, login, kind string
		if err := rows.Scan(&projectID, &login, &kind); err != nil {
			return translate("scan project member", err)
		}
		project, ok := byID[projectID]
		if !ok {
			continue
		}
		switch kind {
		case memberKindWriter:
			project.Writers = append(project.Writers, login)
		case memberKindMotionDesign:
			project.MotionDesigners = append(project.MotionDesigners, login)
		}
	}
	return translate("list project members", rows.Err())
}

func loadMilestones(ctx context.Context, q dbtx, byID map[string]*domain.Project, where string, args ...any) error {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
SELECT m.id, m.project_id, p.title, m.title, m.due_date, m.date_finished, m.created_at, m.updated_at
FROM milestones m JOIN projects p ON p.id = m.project_id
%s
ORDER BY m.due_date IS NULL, m.due_date, m.title`, where), args...)
	if err != nil {
		return translate("list milestones", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return err
		}
		if project, ok := byID[m.ProjectID]; ok {
			project.Milestones = append(project.Milestones, *m)
		}
	}
	return translate("list milestones", rows.Err())
}
