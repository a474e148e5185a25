package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binhocut/clipforge/internal/clips/models"
)

func queuedJob(t *testing.T, m *Memory, userID uuid.UUID) *models.Job {
	t.Helper()

	job := &models.Job{
		ID:        uuid.New(),
		UserID:    userID,
		Source:    "/videos/src.mp4",
		Status:    models.UploadedStatus,
		Settings:  models.DefaultSettings(),
		CreatedAt: time.Now(),
	}
	require.NoError(t, m.Create(context.Background(), job))

	queued, err := m.UpdateStatus(context.Background(), job.ID, models.QueuedStatus)
	require.NoError(t, err)
	return queued
}

func TestCreate_DuplicateID(t *testing.T) {
	m := NewMemory()
	job := queuedJob(t, m, uuid.New())

	err := m.Create(context.Background(), &models.Job{ID: job.ID})
	require.ErrorIs(t, err, models.ErrConflict)
}

func TestGetByID_ReturnsCopy(t *testing.T) {
	m := NewMemory()
	job := queuedJob(t, m, uuid.New())

	got, err := m.GetByID(context.Background(), job.ID)
	require.NoError(t, err)

	got.Status = models.FailedStatus
	again, err := m.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QueuedStatus, again.Status)
}

func TestCheckoutJob_ExactlyOnce(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	job := queuedJob(t, m, uuid.New())

	got, err := m.CheckoutJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatus, got.Status)
	assert.Equal(t, models.StageExtractingAudio, got.Stage)
	assert.Equal(t, 0, got.Progress)
	assert.NotNil(t, got.StartedAt)

	// A second checkout of the same run is rejected.
	_, err = m.CheckoutJob(ctx, job.ID)
	require.ErrorIs(t, err, models.ErrJobRunning)
}

func TestNextQueued_OldestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first := queuedJob(t, m, uuid.New())
	second := &models.Job{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Status:    models.QueuedStatus,
		CreatedAt: first.CreatedAt.Add(time.Minute),
	}
	require.NoError(t, m.Create(ctx, second))

	got, err := m.NextQueued(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = m.CheckoutJob(ctx, first.ID)
	require.NoError(t, err)

	got, err = m.NextQueued(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestNextQueued_EmptyQueue(t *testing.T) {
	m := NewMemory()
	_, err := m.NextQueued(context.Background())
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestReportProgress_Monotonic(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	job := queuedJob(t, m, uuid.New())
	_, err := m.CheckoutJob(ctx, job.ID)
	require.NoError(t, err)

	require.NoError(t, m.ReportProgress(ctx, job.ID, models.StageTranscribing, 15))
	require.NoError(t, m.ReportProgress(ctx, job.ID, models.StageRendering, 63))

	// Stage regression is rejected, state is untouched.
	require.Error(t, m.ReportProgress(ctx, job.ID, models.StageTranscribing, 70))
	// Percentage regression too.
	require.Error(t, m.ReportProgress(ctx, job.ID, models.StageRendering, 50))

	got, err := m.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageRendering, got.Stage)
	assert.Equal(t, 63, got.Progress)
}

func TestReportProgress_RequiresProcessing(t *testing.T) {
	m := NewMemory()
	job := queuedJob(t, m, uuid.New())

	err := m.ReportProgress(context.Background(), job.ID, models.StageRendering, 60)
	require.ErrorIs(t, err, models.ErrConflict)
}

func TestCompleteJob_AtomicVisibility(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	userID := uuid.New()
	require.NoError(t, m.PutUser(ctx, &models.User{
		ID:                 userID,
		Plan:               models.PlanFree,
		SubscriptionStatus: models.SubscriptionActive,
	}))

	job := queuedJob(t, m, userID)
	_, err := m.CheckoutJob(ctx, job.ID)
	require.NoError(t, err)

	clips := []models.Clip{
		{ID: uuid.New(), JobID: job.ID, Index: 0},
		{ID: uuid.New(), JobID: job.ID, Index: 1},
	}
	require.NoError(t, m.CompleteJob(ctx, job.ID, clips))

	got, err := m.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CompletedStatus, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.NotNil(t, got.CompletedAt)

	listed, err := m.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	// Usage is charged exactly once, on completion.
	u, err := m.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.VideosThisMonth)
	assert.Equal(t, 1, u.TotalVideos)

	events := m.Events()
	require.Len(t, events, 1)
	assert.Equal(t, job.ID, events[0].AggregateID())
}

func TestFailJob_RemovesClipsAndKeepsError(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	job := queuedJob(t, m, uuid.New())
	_, err := m.CheckoutJob(ctx, job.ID)
	require.NoError(t, err)

	require.NoError(t, m.FailJob(ctx, job.ID, "render clip 2/3: encoder exploded"))

	got, err := m.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FailedStatus, got.Status)
	assert.Equal(t, "render clip 2/3: encoder exploded", got.Error)

	listed, err := m.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestUpdateStatus_RetryAfterFailure(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	job := queuedJob(t, m, uuid.New())
	_, err := m.CheckoutJob(ctx, job.ID)
	require.NoError(t, err)
	require.NoError(t, m.FailJob(ctx, job.ID, "boom"))

	requeued, err := m.UpdateStatus(ctx, job.ID, models.QueuedStatus)
	require.NoError(t, err)
	assert.Equal(t, models.QueuedStatus, requeued.Status)

	// The next checkout starts clean.
	got, err := m.CheckoutJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Error)
	assert.Equal(t, 0, got.Progress)
}

func TestDelete_CascadesClips(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	userID := uuid.New()
	require.NoError(t, m.PutUser(ctx, &models.User{ID: userID, SubscriptionStatus: models.SubscriptionActive}))

	job := queuedJob(t, m, userID)
	_, err := m.CheckoutJob(ctx, job.ID)
	require.NoError(t, err)
	clipID := uuid.New()
	require.NoError(t, m.CompleteJob(ctx, job.ID, []models.Clip{{ID: clipID, JobID: job.ID}}))

	require.NoError(t, m.Delete(ctx, job.ID))
	_, err = m.GetClip(ctx, clipID)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestClipCounters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	userID := uuid.New()
	require.NoError(t, m.PutUser(ctx, &models.User{ID: userID, SubscriptionStatus: models.SubscriptionActive}))

	job := queuedJob(t, m, userID)
	_, err := m.CheckoutJob(ctx, job.ID)
	require.NoError(t, err)
	clipID := uuid.New()
	require.NoError(t, m.CompleteJob(ctx, job.ID, []models.Clip{{ID: clipID, JobID: job.ID}}))

	require.NoError(t, m.IncrementDownloads(ctx, clipID))
	require.NoError(t, m.IncrementViews(ctx, clipID))
	require.NoError(t, m.IncrementViews(ctx, clipID))

	c, err := m.GetClip(ctx, clipID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Downloads)
	assert.Equal(t, 2, c.Views)
}

func TestResetMonthlyUsage(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, m.PutUser(ctx, &models.User{ID: uuid.New(), VideosThisMonth: i + 1, TotalVideos: 10}))
	}

	n, err := m.ResetMonthlyUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
