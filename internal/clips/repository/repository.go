package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/binhocut/clipforge/internal/clips/models"
)

type JobRepository interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Job, error)
	// UpdateStatus applies a validated status transition and returns the
	// updated row.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// CountByStatus returns per-status job counts for one user.
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[models.Status]int, error)
}

type ClipRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Clip, error)
	// ListByJob returns clips in descriptor index order.
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Clip, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByJob(ctx context.Context, jobID uuid.UUID) error
	IncrementDownloads(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// IncrementUsage bumps the monthly and total counters atomically.
	// Called only after a job completes, never speculatively.
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	// ResetMonthlyUsage zeroes every user's monthly counter. Invoked by
	// the deployment scheduler on the first of the month.
	ResetMonthlyUsage(ctx context.Context) (int, error)
}
