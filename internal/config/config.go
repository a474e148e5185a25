// Package config loads service configuration from the environment, with
// an optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTPAddr is the API listen address; MetricsAddr serves /metrics on
	// the worker.
	HTTPAddr    string
	MetricsAddr string

	DatabaseURL string
	RedisAddr   string

	KafkaBrokers []string
	KafkaTopic   string

	// TempDir holds per-job scratch space; OutputDir receives rendered
	// clips.
	TempDir   string
	OutputDir string

	WhisperLanguage string
	FFmpegThreads   int

	// PollInterval paces the worker's queue scan; OutboxInterval paces
	// the event publisher.
	PollInterval   time.Duration
	OutboxInterval time.Duration
	OutboxBatch    int

	JobLockTTL time.Duration
}

// Load reads configuration from the environment. A .env file is applied
// first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:     getEnv("METRICS_ADDR", ":9090"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "clipforge.job-status"),
		TempDir:         getEnv("TEMP_DIR", os.TempDir()),
		OutputDir:       getEnv("OUTPUT_DIR", "./clips"),
		WhisperLanguage: getEnv("WHISPER_LANGUAGE", "pt"),
	}

	var err error
	if cfg.FFmpegThreads, err = getEnvInt("FFMPEG_THREADS", 0); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getEnvDuration("POLL_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.OutboxInterval, err = getEnvDuration("OUTBOX_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.OutboxBatch, err = getEnvInt("OUTBOX_BATCH", 100); err != nil {
		return nil, err
	}
	if cfg.JobLockTTL, err = getEnvDuration("JOB_LOCK_TTL", 30*time.Minute); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
