// Package app hosts the shared process lifecycle for every binary.
package app

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type Runner func(ctx context.Context) error

// Run executes a service entrypoint under SIGINT/SIGTERM handling and
// returns the process exit code.
func Run(serviceName string, run Runner) int {
	log.Printf("%s starting", serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx) }()

	select {
	case <-ctx.Done():
		log.Printf("%s shutting down", serviceName)
		// Grace period for in-flight cleanup started by the runner.
		select {
		case <-errCh:
		case <-time.After(10 * time.Second):
			log.Printf("%s shutdown timed out", serviceName)
		}
		return 0
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("%s failed: %v", serviceName, err)
			return 1
		}
		log.Printf("%s stopped", serviceName)
		return 0
	}
}
