package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/project-planner/internal/domain"
	"github.com/spec-kit/project-planner/internal/repository"
)

// UserRepository stores credential records in SQLite.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, login_name, password_hash, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.LoginName,
		user.PasswordHash,
		string(user.Role),
		now,
		now,
	)
	if err != nil {
		return translate("insert user", err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET login_name = ?, password_hash = ?, role = ?, updated_at = ?
WHERE id = ?`,
		user.LoginName,
		user.PasswordHash,
		string(user.Role),
		now,
		user.ID,
	)
	if err != nil {
		return translate("update user", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return translate("update user", sql.ErrNoRows)
	}
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, login_name, password_hash, role, created_at, updated_at
FROM users
WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByLoginName(ctx context.Context, loginName string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, login_name, password_hash, role, created_at, updated_at
FROM users
WHERE login_name = ?`,
		loginName,
	)
	return scanUser(row)
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, login_name, password_hash, role, created_at, updated_at
FROM users
ORDER BY login_name`)
	if err != nil {
		return nil, translate("list users", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, translate("list users", rows.Err())
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.LoginName,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, translate("scan user", err)
	}
	user.Role = domain.Role(role)
	return &user, nil
}
