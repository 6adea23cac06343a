// Package cache provides the in-process TTL cache used for idempotent
// task-result caching and the performance lane's read-through path.
package cache

import (
	"context"
	"time"

	"github.com/beargallbladder/golfswarm/internal/config"
	gocache "github.com/patrickmn/go-cache"
)

// TTLCache wraps an expiring in-memory cache behind the narrow
// get/set/delete contract the schedulers consume.
type TTLCache struct {
	cache      *gocache.Cache
	defaultTTL time.Duration
}

// New creates a TTLCache from the cache configuration, applying defaults
// for zero values.
func New(cfg config.CacheConfig) *TTLCache {
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}

	return &TTLCache{
		cache:      gocache.New(ttl, cleanup),
		defaultTTL: ttl,
	}
}

// Get returns the cached value for key, or false when absent or expired.
func (c *TTLCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

// Set stores value under key for ttl. A non-positive ttl uses the
// configured default.
func (c *TTLCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.cache.Set(key, value, ttl)
}

// Delete removes key from the cache. Deleting an absent key is a no-op.
func (c *TTLCache) Delete(_ context.Context, key string) {
	c.cache.Delete(key)
}
