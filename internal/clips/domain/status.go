package domain

import (
	"fmt"

	"github.com/binhocut/clipforge/internal/clips/models"
)

// CanTransition encodes the job state machine:
// uploaded|failed|completed -> queued -> processing -> {completed|failed}.
// Terminal states re-enter queued only via explicit re-submission.
func CanTransition(from, to models.Status) bool {
	switch from {
	case models.UploadedStatus:
		return to == models.QueuedStatus
	case models.QueuedStatus:
		return to == models.ProcessingStatus
	case models.ProcessingStatus:
		return to == models.CompletedStatus || to == models.FailedStatus
	case models.CompletedStatus, models.FailedStatus:
		return to == models.QueuedStatus
	default:
		return false
	}
}

func ValidateTransition(from, to models.Status) error {
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid transition: %s -> %s", from, to)
	}
	return nil
}

// stageOrder fixes the reporting order of pipeline stages.
var stageOrder = map[models.Stage]int{
	models.StageExtractingAudio:    0,
	models.StageAnalyzingSentiment: 1,
	models.StageTranscribing:       2,
	models.StageSelectingClips:     3,
	models.StageRendering:          4,
	models.StageFinalizing:         5,
}

// StageRank returns the position of a stage in the pipeline, or -1 for an
// unknown stage.
func StageRank(s models.Stage) int {
	if r, ok := stageOrder[s]; ok {
		return r
	}
	return -1
}

// ValidateProgress rejects reports that would move a job backwards, either
// in stage order or in percentage.
func ValidateProgress(fromStage models.Stage, fromPct int, toStage models.Stage, toPct int) error {
	fr, tr := StageRank(fromStage), StageRank(toStage)
	if tr < 0 {
		return fmt.Errorf("unknown stage %q", toStage)
	}
	if fr > tr {
		return fmt.Errorf("stage regression: %s -> %s", fromStage, toStage)
	}
	if toPct < fromPct {
		return fmt.Errorf("progress regression: %d -> %d", fromPct, toPct)
	}
	if toPct > 100 {
		return fmt.Errorf("progress above 100: %d", toPct)
	}
	return nil
}
