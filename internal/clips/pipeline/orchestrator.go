// Package pipeline drives one job through its processing stages: audio
// extraction, sentiment analysis, transcription, clip selection, rendering
// and finalization.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/binhocut/clipforge/internal/clips/generate"
	"github.com/binhocut/clipforge/internal/clips/models"
	"github.com/binhocut/clipforge/internal/clips/selector"
	"github.com/binhocut/clipforge/internal/clips/worklock"
	"github.com/binhocut/clipforge/internal/infra/metrics"
	"github.com/binhocut/clipforge/internal/media/ffmpeg"
)

// Store is the durable state the orchestrator reads and writes. Every
// method is an atomic boundary write; the orchestrator holds no lock on
// the job record between calls.
type Store interface {
	// NextQueued claims no job, it only peeks the oldest queued one.
	// models.ErrNotFound means the queue is empty.
	NextQueued(ctx context.Context) (*models.Job, error)
	// CheckoutJob moves queued -> processing exactly once per run.
	CheckoutJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	SaveArtifacts(ctx context.Context, id uuid.UUID, t *models.Transcript, s *models.Sentiment) error
	ReportProgress(ctx context.Context, id uuid.UUID, stage models.Stage, pct int) error
	// CompleteJob is the single durable write that marks success: it
	// persists the clips, flips the status, bumps the usage counter and
	// records the status event atomically.
	CompleteJob(ctx context.Context, id uuid.UUID, clips []models.Clip) error
	// FailJob records the verbatim error and unlinks any partial clips.
	FailJob(ctx context.Context, id uuid.UUID, msg string) error
}

type AudioExtractor interface {
	ExtractAudio(ctx context.Context, input, output string, format ffmpeg.AudioFormat) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, model string) (*models.Transcript, error)
}

type SentimentAnalyzer interface {
	Analyze(ctx context.Context, audioPath string) models.Sentiment
}

// Renderer produces one clip file from a descriptor and reports its size
// in megabytes.
type Renderer interface {
	Render(ctx context.Context, job *models.Job, d models.Descriptor, output string) (sizeMB float64, err error)
}

// Notifier receives completion signals. Failures here never affect job
// status.
type Notifier interface {
	JobCompleted(ctx context.Context, job *models.Job, clipCount int) error
}

type Orchestrator struct {
	store     Store
	locker    worklock.Locker
	audio     AudioExtractor
	transcrib Transcriber
	sentiment SentimentAnalyzer
	renderer  Renderer
	notifier  Notifier

	logger  zerolog.Logger
	clock   func() time.Time
	idGen   func() uuid.UUID
	tempDir string
	outDir  string
	lockTTL time.Duration
}

type Config struct {
	Store     Store
	Locker    worklock.Locker
	Audio     AudioExtractor
	Transcrib Transcriber
	Sentiment SentimentAnalyzer
	Renderer  Renderer
	Notifier  Notifier
	Logger    zerolog.Logger
	TempDir   string
	OutDir    string
	LockTTL   time.Duration
}

func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Locker == nil {
		return nil, fmt.Errorf("locker is required")
	}
	if cfg.Audio == nil || cfg.Transcrib == nil || cfg.Sentiment == nil || cfg.Renderer == nil {
		return nil, fmt.Errorf("media collaborators are required")
	}
	if cfg.TempDir == "" || cfg.OutDir == "" {
		return nil, fmt.Errorf("temp and output directories are required")
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}

	return &Orchestrator{
		store:     cfg.Store,
		locker:    cfg.Locker,
		audio:     cfg.Audio,
		transcrib: cfg.Transcrib,
		sentiment: cfg.Sentiment,
		renderer:  cfg.Renderer,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger.With().Str("component", "pipeline").Logger(),
		clock:     time.Now,
		idGen:     uuid.New,
		tempDir:   cfg.TempDir,
		outDir:    cfg.OutDir,
		lockTTL:   lockTTL,
	}, nil
}

// RunNext processes the oldest queued job, if any. models.ErrNotFound
// signals an empty queue.
func (o *Orchestrator) RunNext(ctx context.Context) error {
	job, err := o.store.NextQueued(ctx)
	if err != nil {
		return err
	}
	return o.Run(ctx, job.ID)
}

// Run executes the full pipeline for one job. The run lock guarantees a
// single concurrent run per job across workers; a failed stage marks the
// job failed with the verbatim error and leaves no partial clips visible.
func (o *Orchestrator) Run(ctx context.Context, jobID uuid.UUID) error {
	lockKey := worklock.JobKey(jobID)
	token, err := o.locker.TryLock(ctx, lockKey, o.lockTTL)
	if err != nil {
		return fmt.Errorf("lock job %s: %w", jobID, err)
	}
	defer func() {
		if err := o.locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			o.logger.Warn().Err(err).Str("job_id", jobID.String()).Msg("unlock failed")
		}
	}()

	job, err := o.store.CheckoutJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("checkout job %s: %w", jobID, err)
	}

	logger := o.logger.With().Str("job_id", jobID.String()).Logger()
	logger.Info().Str("source", job.Source).Msg("job run started")
	metrics.JobStarted()

	outputs, err := o.process(ctx, logger, job)
	if err != nil {
		// The failure write must land even when the run context died.
		failCtx := context.WithoutCancel(ctx)
		o.removeFiles(outputs)
		if failErr := o.store.FailJob(failCtx, jobID, err.Error()); failErr != nil {
			logger.Error().Err(failErr).Msg("failed to record job failure")
		}
		metrics.JobFailed()
		logger.Error().Err(err).Msg("job run failed")
		return err
	}

	metrics.JobCompleted()
	logger.Info().Int("clips", len(outputs)).Msg("job run completed")
	return nil
}

// process runs the stages and returns the rendered output paths for
// cleanup bookkeeping on failure.
func (o *Orchestrator) process(ctx context.Context, logger zerolog.Logger, job *models.Job) ([]string, error) {
	workDir := filepath.Join(o.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	// Temp artifacts are private to this run and removed on every exit
	// path.
	defer os.RemoveAll(workDir)

	progress := newReporter(o.store, logger, job.ID)

	// Stage 1: extract audio (0-5%).
	stageStart := o.clock()
	audioPath := filepath.Join(workDir, "audio.wav")
	if err := o.audio.ExtractAudio(ctx, job.Source, audioPath, ffmpeg.TranscriptionFormat()); err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	metrics.ObserveStage(string(models.StageExtractingAudio), o.clock().Sub(stageStart))
	progress.report(ctx, models.StageAnalyzingSentiment, 5)

	// Stage 2: sentiment (5-15%). Analysis failures degrade to NEUTRO
	// inside the analyzer; the pipeline always proceeds.
	stageStart = o.clock()
	sent := o.sentiment.Analyze(ctx, audioPath)
	if sent.Confidence == 0 {
		metrics.SentimentDegraded()
	}
	metrics.ObserveStage(string(models.StageAnalyzingSentiment), o.clock().Sub(stageStart))
	progress.report(ctx, models.StageTranscribing, 15)

	// Stage 3: transcription (15-50%).
	stageStart = o.clock()
	transcript, err := o.transcrib.Transcribe(ctx, audioPath, job.Settings.WhisperModel)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	metrics.ObserveStage(string(models.StageTranscribing), o.clock().Sub(stageStart))

	// Durability checkpoint: artifacts are flushed before selection.
	if err := o.store.SaveArtifacts(ctx, job.ID, transcript, &sent); err != nil {
		return nil, fmt.Errorf("save artifacts: %w", err)
	}
	progress.report(ctx, models.StageSelectingClips, 50)

	// Stage 4: selection (50%).
	descriptors := o.selectClips(job, transcript, &sent)

	// Stage 5: render (50-90%, linear in clip index).
	clips := make([]models.Clip, 0, len(descriptors))
	outputs := make([]string, 0, len(descriptors))
	for i, d := range descriptors {
		stageStart = o.clock()
		filename := clipFilename(job, i)
		output := filepath.Join(o.outDir, filename)

		sizeMB, err := o.renderer.Render(ctx, job, d, output)
		if err != nil {
			return outputs, fmt.Errorf("render clip %d/%d: %w", i+1, len(descriptors), err)
		}
		outputs = append(outputs, output)
		metrics.ClipRendered()
		metrics.ObserveStage(string(models.StageRendering), o.clock().Sub(stageStart))

		clips = append(clips, models.Clip{
			ID:        o.idGen(),
			JobID:     job.ID,
			Index:     i,
			Filename:  filename,
			Path:      output,
			SizeMB:    sizeMB,
			Start:     d.Start,
			End:       d.End,
			Duration:  d.Duration,
			Score:     d.Score,
			Narrative: d.Narrative,
			Text:      d.Text,
			Caption:   generate.Caption(d.Text, sent),
			Report:    generate.Report(d, sent),
			CreatedAt: o.clock(),
		})

		progress.report(ctx, models.StageRendering, RenderProgress(i, len(descriptors)))
	}

	// Stage 6: finalize (90-100%). The 100% report is atomic with the
	// terminal transition inside CompleteJob.
	progress.report(ctx, models.StageFinalizing, 90)
	if err := o.store.CompleteJob(ctx, job.ID, clips); err != nil {
		return outputs, fmt.Errorf("complete job: %w", err)
	}

	o.notify(ctx, logger, job, len(clips))
	return outputs, nil
}

func (o *Orchestrator) selectClips(job *models.Job, t *models.Transcript, s *models.Sentiment) []models.Descriptor {
	if job.Settings.Mode == models.ModeManual {
		return selector.Manual(t, job.Settings.StartTime, job.Settings.EndTime)
	}
	return selector.Auto(t, selector.DefaultPreferences(job.Settings.NumClips), s)
}

// notify is fire-and-forget: notification failures are logged and never
// influence job status.
func (o *Orchestrator) notify(ctx context.Context, logger zerolog.Logger, job *models.Job, clipCount int) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.JobCompleted(ctx, job, clipCount); err != nil {
		logger.Warn().Err(err).Msg("completion notification failed")
	}
}

func (o *Orchestrator) removeFiles(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			o.logger.Warn().Err(err).Str("path", p).Msg("partial clip cleanup failed")
		}
	}
}

// RenderProgress maps a finished clip index to the 50-90% band.
func RenderProgress(i, n int) int {
	if n <= 0 {
		return 90
	}
	return 50 + (i+1)*40/n
}

func clipFilename(job *models.Job, index int) string {
	base := job.OriginalFilename
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	if base == "" {
		base = job.ID.String()
	}
	return fmt.Sprintf("%s_clip%d.mp4", base, index+1)
}
