// Package cache provides a Redis-backed read-through cache for lead and
// analytics responses. The cache is optional: with no Redis URL configured
// every call is a no-op and reads fall through to the database. Cache
// failures degrade to the database and never fail a request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"leadscore_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Config is the narrow configuration surface the cache needs.
type Config interface {
	GetRedisURL() string
	GetCacheTTL() time.Duration
	IsCacheEnabled() bool
}

// Cache wraps a Redis client with JSON marshalling and a fixed TTL.
// A nil *Cache is valid and behaves as disabled.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New creates a cache from configuration. Returns nil when caching is
// disabled; callers do not need to nil-check before use.
func New(cfg Config, log *logger.Logger) (*Cache, error) {
	if !cfg.IsCacheEnabled() {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	return &Cache{
		client: redis.NewClient(opts),
		ttl:    cfg.GetCacheTTL(),
		log:    log,
	}, nil
}

// NewWithClient builds a cache around an existing client. Used in tests.
func NewWithClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, log: log}
}

// GetJSON loads key into dest. Returns false on miss, disabled cache, or any
// Redis error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.log.CacheMiss(key)
		} else {
			c.log.CacheError(key, err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.log.CacheError(key, err)
		return false
	}
	return true
}

// SetJSON stores v under key with the configured TTL. Errors are logged and
// swallowed.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.log.CacheError(key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.CacheError(key, err)
	}
}

// Delete removes keys. Used to invalidate lead and analytics entries after a
// scoring write.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.CacheError(keys[0], err)
	}
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
