package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/project-planner/internal/domain"
)

const (
	memberKindWriter       = "WRITER"
	memberKindMotionDesign = "MOTION_DESIGN"
)

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository returns a Postgres-backed implementation.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project, milestones []domain.Milestone) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO projects (id, title, customer, date_of_receipt, status, owner_id)
            VALUES ($1, $2, $3, $4, $5, (SELECT id FROM users WHERE login_name = $6))
            RETURNING created_at, updated_at`

		if project.ID == "" {
			project.ID = uuid.NewString()
		}
		if err := tx.QueryRow(ctx, query,
			project.ID,
			project.Title,
			project.Customer,
			project.DateOfReceipt,
			project.Status,
			project.Owner,
		).Scan(&project.CreatedAt, &project.UpdatedAt); err != nil {
			return translate("insert project", err)
		}

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

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            UPDATE projects SET title=$1, customer=$2, date_of_receipt=$3, status=$4,
                owner_id=(SELECT id FROM users WHERE login_name = $5), updated_at=NOW()
            WHERE id=$6
            RETURNING updated_at`

		if err := tx.QueryRow(ctx, query,
			project.Title,
			project.Customer,
			project.DateOfReceipt,
			project.Status,
			project.Owner,
			project.ID,
		).Scan(&project.UpdatedAt); err != nil {
			return translate("update project", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM project_members WHERE project_id=$1`, project.ID); err != nil {
			return translate("clear project members", err)
		}
		return insertMembers(ctx, tx, project)
	})
}

func (r *projectRepository) GetByTitle(ctx context.Context, title string) (*domain.Project, error) {
	const query = `
        SELECT p.id, p.title, p.customer, p.date_of_receipt, p.status, u.login_name, p.created_at, p.updated_at
        FROM projects p LEFT JOIN users u ON u.id = p.owner_id
        WHERE p.title=$1`

	var project domain.Project
	if err := scanProject(r.pool.QueryRow(ctx, query, title), &project); err != nil {
		return nil, translate("get project", err)
	}

	byID := map[string]*domain.Project{project.ID: &project}
	if err := loadMembers(ctx, r.pool, byID, `WHERE pm.project_id = $1`, project.ID); err != nil {
		return nil, err
	}
	if err := loadMilestones(ctx, r.pool, byID, `WHERE m.project_id = $1`, project.ID); err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context) ([]domain.Project, error) {
	const query = `
        SELECT p.id, p.title, p.customer, p.date_of_receipt, p.status, u.login_name, p.created_at, p.updated_at
        FROM projects p LEFT JOIN users u ON u.id = p.owner_id
        ORDER BY p.title`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translate("list projects", err)
	}
	defer rows.Close()

	var result []domain.Project
	for rows.Next() {
		var project domain.Project
		if err := scanProject(rows, &project); err != nil {
			return nil, translate("scan project", err)
		}
		result = append(result, project)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list projects", err)
	}

	byID := make(map[string]*domain.Project, len(result))
	for i := range result {
		byID[result[i].ID] = &result[i]
	}
	if err := loadMembers(ctx, r.pool, byID, ""); err != nil {
		return nil, err
	}
	if err := loadMilestones(ctx, r.pool, byID, ""); err != nil {
		return nil, err
	}
	return result, nil
}

func scanProject(row pgx.Row, project *domain.Project) error {
	return row.Scan(
		&project.ID,
		&project.Title,
		&project.Customer,
		&project.DateOfReceipt,
		&project.Status,
		&project.Owner,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
}

func insertMembers(ctx context.Context, q querier, project *domain.Project) error {
	const query = `
        INSERT INTO project_members (project_id, user_id, kind)
        SELECT $1, id, $3 FROM users WHERE login_name = $2
        ON CONFLICT DO NOTHING`

	for _, login := range project.Writers {
		if _, err := q.Exec(ctx, query, project.ID, login, memberKindWriter); err != nil {
			return translate("insert writer", err)
		}
	}
	for _, login := range project.MotionDesigners {
		if _, err := q.Exec(ctx, query, project.ID, login, memberKindMotionDesign); err != nil {
			return translate("insert motion designer", err)
		}
	}
	return nil
}

func loadMembers(ctx context.Context, q querier, byID map[string]*domain.Project, where string, args ...any) error {
	query := fmt.Sprintf(`
        SELECT pm.project_id, u.login_name, pm.kind
        FROM project_members pm JOIN users u ON u.id = pm.user_id
        %s
        ORDER BY u.login_name`, where)

	rows, err := q.Query(ctx, query, args...)
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

func loadMilestones(ctx context.Context, q querier, byID map[string]*domain.Project, where string, args ...any) error {
	query := fmt.Sprintf(`
        SELECT m.id, m.project_id, p.title, m.title, m.due_date, m.date_finished, m.created_at, m.updated_at
        FROM milestones m JOIN projects p ON p.id = m.project_id
        %s
        ORDER BY m.due_date NULLS LAST, m.title`, where)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return translate("list milestones", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.Milestone
		if err := scanMilestone(rows, &m); err != nil {
			return translate("scan milestone", err)
		}
		if project, ok := byID[m.ProjectID]; ok {
			project.Milestones = append(project.Milestones, m)
		}
	}
	return translate("list milestones", rows.Err())
}
