package wipe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"datacustody/pkg/platform/sentinel"
)

// ErrWipeInProgress is returned when a second wipe is requested for a user
// whose erasure is already running. Concurrent passes over the same domains
// risk double-reporting, so the second request is rejected, not queued.
var ErrWipeInProgress = fmt.Errorf("wipe already in progress for user: %w", sentinel.ErrConflict)

// Locker serializes wipe runs per user.
type Locker interface {
	// Acquire takes the per-user lock, returning a release func, or
	// ErrWipeInProgress when the user is already being wiped.
	Acquire(ctx context.Context, userID int64) (func(), error)
}

// MemoryLocker is the in-process fallback used when Redis is not configured.
// It only serializes wipes within one process.
type MemoryLocker struct {
	mu     sync.Mutex
	locked map[int64]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locked: make(map[int64]struct{})}
}

func (l *MemoryLocker) Acquire(_ context.Context, userID int64) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.locked[userID]; held {
		return nil, ErrWipeInProgress
	}
	l.locked[userID] = struct{}{}
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.locked, userID)
	}
	return release, nil
}

// lockTTL bounds how long a crashed process can hold a user's wipe lock.
const lockTTL = 15 * time.Minute

// RedisLocker serializes wipes across processes with a SETNX lock per user.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// releaseScript deletes the lock only when still held by this owner, so a
// slow run cannot release a lock the TTL already handed to someone else.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *RedisLocker) Acquire(ctx context.Context, userID int64) (func(), error) {
	key := fmt.Sprintf("wipe:lock:%d", userID)
	owner := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, owner, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire wipe lock: %w: %w", sentinel.ErrUnavailable, err)
	}
	if !ok {
		return nil, ErrWipeInProgress
	}

	release := func() {
		_ = releaseScript.Run(context.Background(), l.client, []string{key}, owner).Err()
	}
	return release, nil
}
