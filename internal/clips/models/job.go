package models

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	UploadedStatus   Status = "uploaded"
	QueuedStatus     Status = "queued"
	ProcessingStatus Status = "processing"
	CompletedStatus  Status = "completed"
	FailedStatus     Status = "failed"
)

// Stage labels a phase inside the processing status. They exist for
// progress reporting only; control flow never branches on them.
type Stage string

const (
	StageExtractingAudio    Stage = "extracting_audio"
	StageAnalyzingSentiment Stage = "analyzing_sentiment"
	StageTranscribing       Stage = "transcribing"
	StageSelectingClips     Stage = "selecting_clips"
	StageRendering          Stage = "rendering"
	StageFinalizing         Stage = "finalizing"
)

// Job maps 1:1 to an uploaded source video. It is created at upload time
// and mutated only by the pipeline worker thereafter.
type Job struct {
	ID     uuid.UUID `db:"id"`
	UserID uuid.UUID `db:"user_id"`

	// Source is an opaque reference to the uploaded media: a local path
	// or an object key, resolved by the storage layer.
	Source           string  `db:"source"`
	OriginalFilename string  `db:"original_filename"`
	SizeMB           float64 `db:"size_mb"`

	// Probe metadata, filled at submission time.
	Duration float64 `db:"duration"`
	Width    int     `db:"width"`
	Height   int     `db:"height"`
	FPS      float64 `db:"fps"`

	Status   Status `db:"status"`
	Stage    Stage  `db:"stage"`
	Progress int    `db:"progress"`
	Error    string `db:"error"`

	Settings Settings `db:"settings"`

	// Written once by the pipeline, immutable after that.
	Transcription *Transcript `db:"transcription"`
	Sentiment     *Sentiment  `db:"sentiment"`

	CreatedAt   time.Time  `db:"created_at"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// ProcessingTime returns the duration of the last run, or zero while the
// job has not finished one.
func (j *Job) ProcessingTime() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

// Terminal reports whether the status admits no further pipeline work.
func (j *Job) Terminal() bool {
	return j.Status == CompletedStatus || j.Status == FailedStatus
}
