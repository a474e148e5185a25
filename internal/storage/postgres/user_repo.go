package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/binhocut/clipforge/internal/clips/models"
)

const userColumns = `
	id, email, plan, subscription_status,
	videos_this_month, total_videos,
	created_at, updated_at
`

type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u models.User
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("user get by id: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE users
		SET videos_this_month = videos_this_month + 1,
		    total_videos = total_videos + 1,
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("user increment usage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ResetMonthlyUsage zeroes every monthly counter. Runs on the first of the
// month from the deployment scheduler.
func (r *UserRepo) ResetMonthlyUsage(ctx context.Context) (int, error) {
	const q = `UPDATE users SET videos_this_month = 0, updated_at = NOW() WHERE videos_this_month > 0`

	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("user reset monthly usage: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
