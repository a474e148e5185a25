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

const clipColumns = `
	id, job_id, idx, filename, path, size_mb,
	start_time, end_time, duration, score, narrative, text,
	caption, report, downloads, views, created_at
`

type ClipRepo struct {
	db *sqlx.DB
}

func NewClipRepo(db *sqlx.DB) *ClipRepo {
	return &ClipRepo{db: db}
}

func (r *ClipRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Clip, error) {
	const q = `SELECT ` + clipColumns + ` FROM clips WHERE id = $1`

	var c models.Clip
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("clip get by id: %w", err)
	}
	return &c, nil
}

func (r *ClipRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Clip, error) {
	const q = `SELECT ` + clipColumns + ` FROM clips WHERE job_id = $1 ORDER BY idx`

	var clips []models.Clip
	if err := r.db.SelectContext(ctx, &clips, q, jobID); err != nil {
		return nil, fmt.Errorf("clip list by job: %w", err)
	}
	return clips, nil
}

func (r *ClipRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM clips WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("clip delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ClipRepo) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	const q = `DELETE FROM clips WHERE job_id = $1`

	if _, err := r.db.ExecContext(ctx, q, jobID); err != nil {
		return fmt.Errorf("clip delete by job: %w", err)
	}
	return nil
}

func (r *ClipRepo) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	return r.bump(ctx, id, "downloads")
}

func (r *ClipRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.bump(ctx, id, "views")
}

func (r *ClipRepo) bump(ctx context.Context, id uuid.UUID, column string) error {
	// column is one of two compile-time constants, never user input.
	q := fmt.Sprintf(`UPDATE clips SET %s = %s + 1 WHERE id = $1`, column, column)

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("clip bump %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}
