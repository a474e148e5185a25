// Package service owns the job lifecycle outside the pipeline: admission,
// queueing, queries and deletion.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/binhocut/clipforge/internal/clips/models"
	"github.com/binhocut/clipforge/internal/clips/quota"
	"github.com/binhocut/clipforge/internal/clips/repository"
	"github.com/binhocut/clipforge/internal/media/ffmpeg"
)

// Prober reads source metadata at submission time.
type Prober interface {
	Probe(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

type Service struct {
	jobs   repository.JobRepository
	clips  repository.ClipRepository
	users  repository.UserRepository
	prober Prober
	logger zerolog.Logger
	clock  func() time.Time
	idGen  func() uuid.UUID
}

func New(jobs repository.JobRepository, clips repository.ClipRepository, users repository.UserRepository, prober Prober, logger zerolog.Logger) *Service {
	return &Service{
		jobs:   jobs,
		clips:  clips,
		users:  users,
		prober: prober,
		logger: logger.With().Str("component", "service").Logger(),
		clock:  time.Now,
		idGen:  uuid.New,
	}
}

// Submit admits a new source video and queues it for processing. Admission
// checks the user's plan before anything is persisted; a denied submission
// leaves no trace. The usage counter is charged on completion, not here.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, source, originalFilename string, settings *models.Settings) (*models.Job, error) {
	if userID == uuid.Nil || source == "" {
		return nil, models.ErrInvalidArgument
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	info, err := s.prober.Probe(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("probe source: %w", err)
	}

	decision, err := quota.Admit(user, info.Duration)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", decision.Cause, decision.Reason)
	}

	cfg := models.DefaultSettings()
	if settings != nil {
		cfg = *settings
	}
	cfg.Normalize()
	cfg.NumClips = quota.MaxClips(user.Plan, cfg.NumClips)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == models.ModeManual && cfg.EndTime > info.Duration {
		return nil, fmt.Errorf("%w: manual end_time beyond video duration", models.ErrInvalidArgument)
	}

	job := &models.Job{
		ID:               s.idGen(),
		UserID:           userID,
		Source:           source,
		OriginalFilename: originalFilename,
		SizeMB:           info.SizeMB,
		Duration:         info.Duration,
		Width:            info.Width,
		Height:           info.Height,
		FPS:              info.FPS,
		Status:           models.UploadedStatus,
		Settings:         cfg,
		CreatedAt:        s.clock(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	queued, err := s.jobs.UpdateStatus(ctx, job.ID, models.QueuedStatus)
	if err != nil {
		return nil, fmt.Errorf("queue job: %w", err)
	}

	s.logger.Info().
		Str("job_id", job.ID.String()).
		Str("user_id", userID.String()).
		Float64("duration", info.Duration).
		Str("mode", string(cfg.Mode)).
		Msg("job submitted")
	return queued, nil
}

// Retry puts a finished job back on the queue for a fresh run. Admission
// is re-checked against the current plan state; a running job cannot be
// retried.
func (s *Service) Retry(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == models.ProcessingStatus {
		return nil, models.ErrJobRunning
	}

	user, err := s.users.GetByID(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	decision, err := quota.Admit(user, job.Duration)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", decision.Cause, decision.Reason)
	}

	queued, err := s.jobs.UpdateStatus(ctx, jobID, models.QueuedStatus)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("job_id", jobID.String()).Msg("job requeued")
	return queued, nil
}

func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	if jobID == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	return s.jobs.GetByID(ctx, jobID)
}

func (s *Service) ListJobs(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	if userID == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	return s.jobs.ListByUser(ctx, userID)
}

// ListClips returns a job's clips in descriptor index order. Only completed
// jobs expose clips; any other status yields an empty list, never partial
// output.
func (s *Service) ListClips(ctx context.Context, jobID uuid.UUID) ([]models.Clip, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.CompletedStatus {
		return []models.Clip{}, nil
	}
	return s.clips.ListByJob(ctx, jobID)
}

func (s *Service) GetClip(ctx context.Context, clipID uuid.UUID) (*models.Clip, error) {
	if clipID == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	return s.clips.GetByID(ctx, clipID)
}

// RegisterDownload bumps the download counter and returns the clip so the
// transport layer can serve its file.
func (s *Service) RegisterDownload(ctx context.Context, clipID uuid.UUID) (*models.Clip, error) {
	clip, err := s.clips.GetByID(ctx, clipID)
	if err != nil {
		return nil, err
	}
	if err := s.clips.IncrementDownloads(ctx, clipID); err != nil {
		return nil, err
	}
	clip.Downloads++
	return clip, nil
}

func (s *Service) RegisterView(ctx context.Context, clipID uuid.UUID) (*models.Clip, error) {
	clip, err := s.clips.GetByID(ctx, clipID)
	if err != nil {
		return nil, err
	}
	if err := s.clips.IncrementViews(ctx, clipID); err != nil {
		return nil, err
	}
	clip.Views++
	return clip, nil
}

// DeleteClip removes one clip and its backing file. A missing file is not
// an error, the record is the source of truth.
func (s *Service) DeleteClip(ctx context.Context, clipID uuid.UUID) error {
	clip, err := s.clips.GetByID(ctx, clipID)
	if err != nil {
		return err
	}
	if err := s.clips.Delete(ctx, clipID); err != nil {
		return err
	}
	s.removeFile(clip.Path)
	return nil
}

// DeleteJob removes the job, its clips and their files. A running job must
// finish or fail before it can be deleted.
func (s *Service) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == models.ProcessingStatus {
		return models.ErrJobRunning
	}

	clips, err := s.clips.ListByJob(ctx, jobID)
	if err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, jobID); err != nil {
		return err
	}
	for _, c := range clips {
		s.removeFile(c.Path)
	}
	s.logger.Info().Str("job_id", jobID.String()).Int("clips", len(clips)).Msg("job deleted")
	return nil
}

// UserStats summarizes a user's plan position and job history.
type UserStats struct {
	Plan            models.Plan           `json:"plan"`
	Limits          models.PlanLimits     `json:"limits"`
	VideosThisMonth int                   `json:"videos_this_month"`
	TotalVideos     int                   `json:"total_videos"`
	JobsByStatus    map[models.Status]int `json:"jobs_by_status"`
}

func (s *Service) Stats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := s.jobs.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserStats{
		Plan:            user.Plan,
		Limits:          user.Plan.Limits(),
		VideosThisMonth: user.VideosThisMonth,
		TotalVideos:     user.TotalVideos,
		JobsByStatus:    counts,
	}, nil
}

// ResetMonthlyUsage zeroes every user's monthly counter and returns how
// many were touched.
func (s *Service) ResetMonthlyUsage(ctx context.Context) (int, error) {
	n, err := s.users.ResetMonthlyUsage(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int("users", n).Msg("monthly usage reset")
	return n, nil
}

func (s *Service) removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn().Err(err).Str("path", path).Msg("file removal failed")
	}
}
