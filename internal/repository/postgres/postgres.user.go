// FilePath: internal/repository/postgres/postgres.user.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/smartir/hub/internal/database"
	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/models"
)

type UserRepo struct {
	baseRepo
}

func NewUserRepository(db database.DB) (*UserRepo, error) {
	repo := &UserRepo{baseRepo: baseRepo{db: db}}
	err := repo.initSchema([]string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(50) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			email VARCHAR(100) NOT NULL DEFAULT '',
			role VARCHAR(10) NOT NULL DEFAULT 'user',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_login TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, email, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.db.GetDB().QueryRowxContext(ctx, query,
		user.Username, user.PasswordHash, user.Email, user.Role, user.IsActive, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewConflictError("username already taken", err)
		}
		return errors.NewDatabaseError("failed to create user", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("user not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get user", err)
	}
	return user, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT * FROM users WHERE username = $1`

	err := r.db.GetDB().GetContext(ctx, user, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("user not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get user", err)
	}
	return user, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	query := `SELECT * FROM users ORDER BY created_at ASC`

	err := r.db.GetDB().SelectContext(ctx, &users, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list users", err)
	}
	return users, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, id int64, lastLogin time.Time) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2`

	result, err := r.db.GetDB().ExecContext(ctx, query, lastLogin, id)
	if err != nil {
		return errors.NewDatabaseError("failed to update last login", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("user not found", nil)
	}
	return nil
}

func (r *UserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE users SET is_active = $1 WHERE id = $2`

	result, err := r.db.GetDB().ExecContext(ctx, query, active, id)
	if err != nil {
		return errors.NewDatabaseError("failed to update user status", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("user not found", nil)
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context, onlyActive bool) (int64, error) {
	count := int64(0)
	query := `SELECT COUNT(*) FROM users`
	if onlyActive {
		query += ` WHERE is_active = TRUE`
	}

	err := r.db.GetDB().GetContext(ctx, &count, query)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to count users", err)
	}
	return count, nil
}
