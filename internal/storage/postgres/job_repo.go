package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/binhocut/clipforge/internal/clips/domain"
	"github.com/binhocut/clipforge/internal/clips/models"
)

const jobColumns = `
	id, user_id, source, original_filename, size_mb,
	duration, width, height, fps,
	status, stage, progress, error, settings,
	transcription, sentiment,
	created_at, started_at, completed_at
`

// JobRepo persists jobs and implements the pipeline's durable state
// machine. CompleteJob and FailJob fold the status write, clip rows, usage
// accounting and the outbox record into one transaction.
type JobRepo struct {
	db     *sqlx.DB
	outbox *OutboxRepo
}

func NewJobRepo(db *sqlx.DB, outbox *OutboxRepo) *JobRepo {
	return &JobRepo{db: db, outbox: outbox}
}

func (r *JobRepo) Create(ctx context.Context, j *models.Job) error {
	const q = `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := r.db.ExecContext(ctx, q,
		j.ID, j.UserID, j.Source, j.OriginalFilename, j.SizeMB,
		j.Duration, j.Width, j.Height, j.FPS,
		j.Status, j.Stage, j.Progress, j.Error, j.Settings,
		j.Transcription, j.Sentiment,
		j.CreatedAt, j.StartedAt, j.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("job create: %w", err)
	}
	return nil
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	var j models.Job
	if err := r.db.GetContext(ctx, &j, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("job get by id: %w", err)
	}
	return &j, nil
}

func (r *JobRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM jobs WHERE user_id = $1 ORDER BY created_at`

	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, q, userID); err != nil {
		return nil, fmt.Errorf("job list by user: %w", err)
	}
	return jobs, nil
}

// UpdateStatus applies a validated transition. The current status is read
// inside the same statement so concurrent writers cannot race past the
// state machine.
func (r *JobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Job, error) {
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTransition(cur.Status, status); err != nil {
		return nil, err
	}
	if cur.Status == status {
		return cur, nil
	}

	const q = `
		UPDATE jobs
		SET status = $3, stage = '', progress = 0, error = '', completed_at = NULL
		WHERE id = $1 AND status = $2
		RETURNING ` + jobColumns

	var j models.Job
	if err := r.db.GetContext(ctx, &j, q, id, cur.Status, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("job update status: %w", err)
	}
	return &j, nil
}

func (r *JobRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Clip rows cascade via the foreign key.
	const q = `DELETE FROM jobs WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("job delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *JobRepo) CountByStatus(ctx context.Context, userID uuid.UUID) (map[models.Status]int, error) {
	const q = `SELECT status, COUNT(*) AS n FROM jobs WHERE user_id = $1 GROUP BY status`

	rows := []struct {
		Status models.Status `db:"status"`
		N      int           `db:"n"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, fmt.Errorf("job count by status: %w", err)
	}

	counts := make(map[models.Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

// --- pipeline store ---

// NextQueued returns the oldest queued job. SKIP LOCKED keeps concurrent
// workers from piling onto the same row while one of them checks it out.
func (r *JobRepo) NextQueued(ctx context.Context) (*models.Job, error) {
	const q = `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = 'queued'
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`

	var j models.Job
	if err := r.db.GetContext(ctx, &j, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("job next queued: %w", err)
	}
	return &j, nil
}

// CheckoutJob claims a queued job for processing. The WHERE clause makes
// the claim exclusive: the second caller sees zero rows and gets
// ErrJobRunning when the job is already processing.
func (r *JobRepo) CheckoutJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	const q = `
		UPDATE jobs
		SET status = 'processing', stage = $2, progress = 0, error = '',
		    started_at = NOW(), completed_at = NULL
		WHERE id = $1 AND status = 'queued'
		RETURNING ` + jobColumns

	var j models.Job
	err := r.db.GetContext(ctx, &j, q, id, models.StageExtractingAudio)
	if err == nil {
		return &j, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job checkout: %w", err)
	}

	cur, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if cur.Status == models.ProcessingStatus {
		return nil, models.ErrJobRunning
	}
	return nil, domain.ValidateTransition(cur.Status, models.ProcessingStatus)
}

func (r *JobRepo) SaveArtifacts(ctx context.Context, id uuid.UUID, t *models.Transcript, s *models.Sentiment) error {
	const q = `UPDATE jobs SET transcription = $2, sentiment = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id, t, s)
	if err != nil {
		return fmt.Errorf("job save artifacts: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ReportProgress writes an advisory (stage, progress) pair. The guard in
// the WHERE clause enforces monotonicity at the row, mirroring
// domain.ValidateProgress.
func (r *JobRepo) ReportProgress(ctx context.Context, id uuid.UUID, stage models.Stage, pct int) error {
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cur.Status != models.ProcessingStatus {
		return models.ErrConflict
	}
	if err := domain.ValidateProgress(cur.Stage, cur.Progress, stage, pct); err != nil {
		return err
	}

	const q = `
		UPDATE jobs
		SET stage = $2, progress = $3
		WHERE id = $1 AND status = 'processing' AND progress <= $3
	`
	res, err := r.db.ExecContext(ctx, q, id, stage, pct)
	if err != nil {
		return fmt.Errorf("job report progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrConflict
	}
	return nil
}

// CompleteJob commits the run: clips inserted, job flipped to completed at
// 100%, the user's usage counters bumped and the status event added to the
// outbox, all in one transaction. A failure anywhere rolls everything back
// so partial clips never become visible.
func (r *JobRepo) CompleteJob(ctx context.Context, id uuid.UUID, clips []models.Clip) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const updateQ = `
		UPDATE jobs
		SET status = 'completed', stage = $2, progress = 100, completed_at = NOW()
		WHERE id = $1 AND status = 'processing'
		RETURNING user_id, status
	`
	var row struct {
		UserID uuid.UUID     `db:"user_id"`
		Status models.Status `db:"status"`
	}
	if err := tx.GetContext(ctx, &row, updateQ, id, models.StageFinalizing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrConflict
		}
		return fmt.Errorf("job complete: %w", err)
	}

	const clipQ = `
		INSERT INTO clips (
			id, job_id, idx, filename, path, size_mb,
			start_time, end_time, duration, score, narrative, text,
			caption, report, downloads, views, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 0, 0, $15)
	`
	for _, c := range clips {
		if _, err := tx.ExecContext(ctx, clipQ,
			c.ID, c.JobID, c.Index, c.Filename, c.Path, c.SizeMB,
			c.Start, c.End, c.Duration, c.Score, c.Narrative, c.Text,
			c.Caption, c.Report, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("clip insert: %w", err)
		}
	}

	const usageQ = `
		UPDATE users
		SET videos_this_month = videos_this_month + 1,
		    total_videos = total_videos + 1,
		    updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, usageQ, row.UserID); err != nil {
		return fmt.Errorf("usage bump: %w", err)
	}

	event := models.NewJobStatusChanged(id, models.ProcessingStatus, models.CompletedStatus, "")
	if err := r.outbox.Add(ctx, tx, event); err != nil {
		return fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// FailJob records the verbatim failure message and removes any clip rows
// written for the job, in one transaction with the outbox record.
func (r *JobRepo) FailJob(ctx context.Context, id uuid.UUID, msg string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const updateQ = `
		UPDATE jobs
		SET status = 'failed', error = $2, completed_at = NOW()
		WHERE id = $1 AND status = 'processing'
		RETURNING user_id
	`
	var userID uuid.UUID
	if err := tx.GetContext(ctx, &userID, updateQ, id, msg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrConflict
		}
		return fmt.Errorf("job fail: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM clips WHERE job_id = $1`, id); err != nil {
		return fmt.Errorf("clip cleanup: %w", err)
	}

	event := models.NewJobStatusChanged(id, models.ProcessingStatus, models.FailedStatus, msg)
	if err := r.outbox.Add(ctx, tx, event); err != nil {
		return fmt.Errorf("add outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
