package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/project-planner/internal/domain"
	"github.com/spec-kit/project-planner/internal/repository"
)

// MilestoneRepository stores milestones in SQLite.
type MilestoneRepository struct {
	db *sql.DB
}

func NewMilestoneRepository(db *sql.DB) repository.MilestoneRepository {
	return &MilestoneRepository{db: db}
}

func (r *MilestoneRepository) Create(ctx context.Context, milestone *domain.Milestone) error {
	return insertMilestone(ctx, r.db, milestone)
}

func (r *MilestoneRepository) Update(ctx context.Context, milestone *domain.Milestone) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE milestones SET title = ?, due_date = ?, date_finished = ?, updated_at = ?
WHERE id = ?`,
		milestone.Title,
		milestone.DueDate,
		milestone.DateFinished,
		now,
		milestone.ID,
	)
	if err != nil {
		return translate("update milestone", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return translate("update milestone", sql.ErrNoRows)
	}
	milestone.UpdatedAt = now
	return nil
}

func (r *MilestoneRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM milestones WHERE id = ?`, id)
	if err != nil {
		return translate("delete milestone", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return translate("delete milestone", sql.ErrNoRows)
	}
	return nil
}

func (r *MilestoneRepository) GetByID(ctx context.Context, id string) (*domain.Milestone, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT m.id, m.project_id, p.title, m.title, m.due_date, m.date_finished, m.created_at, m.updated_at
FROM milestones m JOIN projects p ON p.id = m.project_id
WHERE m.id = ?`,
		id,
	)
	return scanMilestone(row)
}

func (r *MilestoneRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Milestone, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT m.id, m.project_id, p.title, m.title, m.due_date, m.date_finished, m.created_at, m.updated_at
FROM milestones m JOIN projects p ON p.id = m.project_id
WHERE m.project_id = ?
ORDER BY m.due_date IS NULL, m.due_date, m.title`,
		projectID,
	)
	if err != nil {
		return nil, translate("list milestones", err)
	}
	defer rows.Close()

	var milestones []domain.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, *m)
	}
	return milestones, translate("list milestones", rows.Err())
}

func insertMilestone(ctx context.Context, q dbtx, milestone *domain.Milestone) error {
	now := time.Now().UTC()
	if milestone.ID == "" {
		milestone.ID = uuid.NewString()
	}
	if _, err := q.ExecContext(ctx, `
INSERT INTO milestones (id, project_id, title, due_date, date_finished, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		milestone.ID,
		milestone.ProjectID,
		milestone.Title,
		milestone.DueDate,
		milestone.DateFinished,
		now,
		now,
	); err != nil {
		return translate("insert milestone", err)
	}
	milestone.CreatedAt = now
	milestone.UpdatedAt = now
	return nil
}

func scanMilestone(row scanner) (*domain.Milestone, error) {
	var m domain.Milestone
	if err := row.Scan(
		&m.ID,
		&m.ProjectID,
		&m.ProjectTitle,
		&m.Title,
		&m.DueDate,
		&m.DateFinished,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, translate("scan milestone", err)
	}
	return &m, nil
}
