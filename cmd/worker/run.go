package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/binhocut/clipforge/internal/clips/kafka"
	"github.com/binhocut/clipforge/internal/clips/models"
	"github.com/binhocut/clipforge/internal/clips/outbox"
	"github.com/binhocut/clipforge/internal/clips/pipeline"
	"github.com/binhocut/clipforge/internal/clips/worklock"
	"github.com/binhocut/clipforge/internal/config"
	"github.com/binhocut/clipforge/internal/infra/metrics"
	"github.com/binhocut/clipforge/internal/media/ffmpeg"
	"github.com/binhocut/clipforge/internal/media/render"
	"github.com/binhocut/clipforge/internal/media/sentiment"
	"github.com/binhocut/clipforge/internal/media/whisper"
	"github.com/binhocut/clipforge/internal/storage/postgres"
)

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "worker").Logger()
	metrics.MustRegister()

	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	redisCli := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisCli.Close()
	if err := redisCli.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	ffm, err := ffmpeg.New(logger, cfg.FFmpegThreads)
	if err != nil {
		return err
	}
	transcriber, err := whisper.New(logger, cfg.WhisperLanguage)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	outboxRepo := postgres.NewOutboxRepo(db)
	jobs := postgres.NewJobRepo(db, outboxRepo)

	orch, err := pipeline.New(pipeline.Config{
		Store:     jobs,
		Locker:    worklock.NewRedisLocker(redisCli),
		Audio:     ffm,
		Transcrib: transcriber,
		Sentiment: sentiment.New(logger, ffm),
		Renderer:  render.New(logger, ffm, cfg.TempDir),
		Logger:    logger,
		TempDir:   cfg.TempDir,
		OutDir:    cfg.OutputDir,
		LockTTL:   cfg.JobLockTTL,
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	publisher, err := outbox.NewPublisher(outbox.PublisherConfig{
		OutboxRepo: outboxRepo,
		Producer:   producer,
		Interval:   cfg.OutboxInterval,
		BatchSize:  cfg.OutboxBatch,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("build outbox publisher: %w", err)
	}

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 3)
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
		errCh <- metricsSrv.ListenAndServe()
	}()
	go func() { errCh <- publisher.Start(ctx) }()
	go func() { errCh <- pollLoop(ctx, logger, orch, cfg.PollInterval) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return nil

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

// pollLoop drains the job queue, pausing only when it runs dry. Run errors
// are logged and the loop keeps going; the failed job already carries its
// error.
func pollLoop(ctx context.Context, logger zerolog.Logger, orch *pipeline.Orchestrator, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		for {
			err := orch.RunNext(ctx)
			if err == nil {
				continue
			}
			if errors.Is(err, models.ErrNotFound) {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error().Err(err).Msg("job run error")
			break
		}
	}
}
