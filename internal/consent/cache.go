package consent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// GateCache memoizes the per-user "has consented" answer so gate checks do
// not hit the store on every request. Toggling consent clears the entry, so
// the gate re-evaluates on the user's next request.
type GateCache interface {
	Get(ctx context.Context, userID int64) (value, ok bool, err error)
	Set(ctx context.Context, userID int64, value bool) error
	Clear(ctx context.Context, userID int64) error
}

// MemoryGateCache is the in-process fallback used when Redis is not
// configured.
type MemoryGateCache struct {
	mu      sync.RWMutex
	entries map[int64]bool
}

func NewMemoryGateCache() *MemoryGateCache {
	return &MemoryGateCache{entries: make(map[int64]bool)}
}

func (c *MemoryGateCache) Get(_ context.Context, userID int64) (bool, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[userID]
	return v, ok, nil
}

func (c *MemoryGateCache) Set(_ context.Context, userID int64, value bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = value
	return nil
}

func (c *MemoryGateCache) Clear(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

// gateTTL bounds staleness when an entry survives a missed Clear (e.g. a
// consent change applied directly in the database).
const gateTTL = time.Hour

// RedisGateCache shares the gate answers across processes.
type RedisGateCache struct {
	client *redis.Client
}

func NewRedisGateCache(client *redis.Client) *RedisGateCache {
	return &RedisGateCache{client: client}
}

func gateKey(userID int64) string {
	return fmt.Sprintf("consent:gate:%d", userID)
}

func (c *RedisGateCache) Get(ctx context.Context, userID int64) (bool, bool, error) {
	val, err := c.client.Get(ctx, gateKey(userID)).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("get consent gate: %w", err)
	}
	return val == "1", true, nil
}

func (c *RedisGateCache) Set(ctx context.Context, userID int64, value bool) error {
	val := "0"
	if value {
		val = "1"
	}
	if err := c.client.Set(ctx, gateKey(userID), val, gateTTL).Err(); err != nil {
		return fmt.Errorf("set consent gate: %w", err)
	}
	return nil
}

func (c *RedisGateCache) Clear(ctx context.Context, userID int64) error {
	if err := c.client.Del(ctx, gateKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear consent gate: %w", err)
	}
	return nil
}
