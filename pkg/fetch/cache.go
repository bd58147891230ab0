package fetch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunCache memoizes map-like fetches within a run so an adapter never
// fetches the same reference map twice.
type RunCache interface {
	Get(ctx context.Context, key string) (map[string]any, bool)
	Set(ctx context.Context, key string, value map[string]any)
}

// MemoryCache is the default run-scoped cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]map[string]any
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]map[string]any)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, value map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// RedisCache shares reference maps across runs (e.g. the SEC ticker map,
// which changes rarely relative to the ingest cadence).
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps a redis client. TTL of zero means no expiry.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (map[string]any, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value map[string]any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	// Cache writes are best effort; a down Redis never fails a run.
	_ = c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err()
}
