package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/binhocut/clipforge/internal/clips/httpapi"
	"github.com/binhocut/clipforge/internal/clips/service"
	"github.com/binhocut/clipforge/internal/config"
	"github.com/binhocut/clipforge/internal/media/ffmpeg"
	"github.com/binhocut/clipforge/internal/storage/postgres"
)

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api").Logger()

	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	ffm, err := ffmpeg.New(logger, cfg.FFmpegThreads)
	if err != nil {
		return err
	}

	outboxRepo := postgres.NewOutboxRepo(db)
	jobs := postgres.NewJobRepo(db, outboxRepo)
	clips := postgres.NewClipRepo(db)
	users := postgres.NewUserRepo(db)

	svc := service.New(jobs, clips, users, ffm, logger)
	router := httpapi.NewRouter(httpapi.New(svc))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	}
}
