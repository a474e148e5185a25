// Package worklock provides the per-job distributed lock that keeps the
// "exactly one concurrent run per job" rule across worker processes.
package worklock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/binhocut/clipforge/internal/clips/models"
)

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// JobKey is the lock key for one job's run.
func JobKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s:run", jobID)
}

type RedisLocker struct {
	cli *redis.Client
}

func NewRedisLocker(cli *redis.Client) *RedisLocker {
	return &RedisLocker{cli: cli}
}

// TryLock attempts a SetNX once. A held lock means another worker owns the
// job run, which maps to the job-already-processing rejection.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", models.ErrJobRunning
	}
	return token, nil
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

// Unlock releases the lock only when the token still matches, so an
// expired-and-reacquired lock is never stolen.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}

// LocalLocker is a single-process Locker used in tests and development
// runs without redis.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]string)}
}

func (l *LocalLocker) TryLock(ctx context.Context, key string, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return "", models.ErrJobRunning
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, nil
}

func (l *LocalLocker) Unlock(ctx context.Context, key, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}
