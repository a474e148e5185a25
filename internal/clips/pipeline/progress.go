package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/binhocut/clipforge/internal/clips/models"
)

// reporter pushes progress checkpoints to the store. Progress writes are
// advisory: a failed write is logged and the run continues, the store
// rejects regressions on its side.
type reporter struct {
	store  Store
	logger zerolog.Logger
	jobID  uuid.UUID
}

func newReporter(store Store, logger zerolog.Logger, jobID uuid.UUID) *reporter {
	return &reporter{store: store, logger: logger, jobID: jobID}
}

func (r *reporter) report(ctx context.Context, stage models.Stage, pct int) {
	if err := r.store.ReportProgress(ctx, r.jobID, stage, pct); err != nil {
		r.logger.Warn().
			Err(err).
			Str("stage", string(stage)).
			Int("progress", pct).
			Msg("progress report dropped")
		return
	}
	r.logger.Debug().Str("stage", string(stage)).Int("progress", pct).Msg("progress")
}
