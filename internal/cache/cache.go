// Package cache provides a small JSON cache over Redis with explicit TTLs
// and write-time invalidation. A nil *Cache (or a Cache without a Redis
// client) is valid and behaves as a permanent miss, so callers never need
// to branch on whether caching is configured.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache wraps a Redis client. Keys are namespaced with prefix.
type Cache struct {
	rdb    *redis.Client
	prefix string
}

// New returns a Cache backed by rdb. rdb may be nil to disable caching.
func New(rdb *redis.Client, prefix string) *Cache {
	return &Cache{rdb: rdb, prefix: prefix}
}

// Get unmarshals the cached value for key into dest and reports whether a
// usable entry was found. Redis errors count as misses.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Ctx(ctx).Error().Err(err).Str("key", key).Msg("cache get")
		}
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false
	}
	return true
}

// Set stores v under key for ttl. Best effort; failures are logged and
// swallowed.
func (c *Cache) Set(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+key, b, ttl).Err(); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("key", key).Msg("cache set")
	}
}

// Invalidate removes the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("cache invalidate")
	}
}

// InvalidatePrefix removes every key under keyPrefix. Used when a write
// affects a family of keys, e.g. all cached holiday ranges for a queue.
func (c *Cache) InvalidatePrefix(ctx context.Context, keyPrefix string) {
	if c == nil || c.rdb == nil {
		return
	}
	var cursor uint64
	pattern := c.prefix + keyPrefix + "*"
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("pattern", pattern).Msg("cache scan")
			return
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("cache invalidate prefix")
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
