package models

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid arguments")

	// Admission errors, rejected before a job enters the queue.
	ErrQuotaExceeded        = errors.New("monthly video limit reached")
	ErrDurationLimit        = errors.New("video exceeds plan duration limit")
	ErrSubscriptionInactive = errors.New("subscription inactive")

	// ErrJobRunning rejects a second concurrent start for the same job.
	ErrJobRunning = errors.New("job already processing")
)
