package worklock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binhocut/clipforge/internal/clips/models"
)

func TestJobKey(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	assert.Equal(t, "job:11111111-1111-1111-1111-111111111111:run", JobKey(id))
}

func TestLocalLocker_ExclusiveHold(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()
	key := JobKey(uuid.New())

	token, err := l.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Second acquisition is rejected while held.
	_, err = l.TryLock(ctx, key, time.Minute)
	require.ErrorIs(t, err, models.ErrJobRunning)

	require.NoError(t, l.Unlock(ctx, key, token))

	_, err = l.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
}

func TestLocalLocker_WrongTokenDoesNotRelease(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()
	key := JobKey(uuid.New())

	_, err := l.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)

	// A stale token is ignored, the lock stays with its owner.
	require.NoError(t, l.Unlock(ctx, key, "stale-token"))


	_, err = l.TryLock(ctx, key, time.Minute)
	require.ErrorIs(t, err, models.ErrJobRunning)
}

func TestLocalLocker_IndependentKeys(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	_, err := l.TryLock(ctx, JobKey(uuid.New()), time.Minute)
	require.NoError(t, err)
	_, err = l.TryLock(ctx, JobKey(uuid.New()), time.Minute)
	require.NoError(t, err)
}
