package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/project-planner/internal/domain"
)

type milestoneRepository struct {
	pool *pgxpool.Pool
}

// NewMilestoneRepository returns a Postgres-backed implementation.
func NewMilestoneRepository(pool *pgxpool.Pool) MilestoneRepository {
	return &milestoneRepository{pool: pool}
}

func (r *milestoneRepository) Create(ctx context.Context, milestone *domain.Milestone) error {
	return insertMilestone(ctx, r.pool, milestone)
}

func (r *milestoneRepository) Update(ctx context.Context, milestone *domain.Milestone) error {
	const query = `
        UPDATE milestones SET title=$1, due_date=$2, date_finished=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		milestone.Title,
		milestone.DueDate,
		milestone.DateFinished,
		milestone.ID,
	).Scan(&milestone.UpdatedAt)
	return translate("update milestone", err)
}

func (r *milestoneRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM milestones WHERE id=$1`, id)
	if err != nil {
		return translate("delete milestone", err)
	}
	if cmd.RowsAffected() == 0 {
		return translate("delete milestone", pgx.ErrNoRows)
	}
	return nil
}

func (r *milestoneRepository) GetByID(ctx context.Context, id string) (*domain.Milestone, error) {
	const query = `
        SELECT m.id, m.project_id, p.title, m.title, m.due_date, m.date_finished, m.created_at, m.updated_at
        FROM milestones m JOIN projects p ON p.id = m.project_id
        WHERE m.id=$1`

	var m domain.Milestone
	if err := scanMilestone(r.pool.QueryRow(ctx, query, id), &m); err != nil {
		return nil, translate("get milestone", err)
	}
	return &m, nil
}

func (r *milestoneRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Milestone, error) {
	const query = `
        SELECT m.id, m.project_id, p.title, m.title, m.due_date, m.date_finished, m.created_at, m.updated_at
        FROM milestones m JOIN projects p ON p.id = m.project_id
        WHERE m.project_id=$1
        ORDER BY m.due_date NULLS LAST, m.title`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, translate("list milestones", err)
	}
	defer rows.Close()

	var result []domain.Milestone
	for rows.Next() {
		var m domain.Milestone
		if err := scanMilestone(rows, &m); err != nil {
			return nil, translate("scan milestone", err)
		}
		result = append(result, m)
	}
	return result, translate("list milestones", rows.Err())
}

func insertMilestone(ctx context.Context, q querier, milestone *domain.Milestone) error {
	const query = `
        INSERT INTO milestones (id, project_id, title, due_date, date_finished)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	if milestone.ID == "" {
		milestone.ID = uuid.NewString()
	}
	err := q.QueryRow(ctx, query,
		milestone.ID,
		milestone.ProjectID,
		milestone.Title,
		milestone.DueDate,
		milestone.DateFinished,
	).Scan(&milestone.CreatedAt, &milestone.UpdatedAt)
	return translate("insert milestone", err)
}

func scanMilestone(row pgx.Row, m *domain.Milestone) error {
	return row.Scan(
		&m.ID,
		&m.ProjectID,
		&m.ProjectTitle,
		&m.Title,
		&m.DueDate,
		&m.DateFinished,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
}
