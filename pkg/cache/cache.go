// Package cache keeps catalog reads in Redis. Entries are namespaced by a version
// counter, so Invalidate drops every entry at once by bumping it; stale keys age out
// through their TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const versionKey = "catalog:version"

// Cache is a versioned JSON cache. A nil *Cache, or one built without a client,
// is a pass-through.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a cache. client may be nil when Redis is not configured.
func New(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) enabled() bool { return c != nil && c.client != nil }

func (c *Cache) key(ctx context.Context, name string) (string, error) {
	v, err := c.client.Get(ctx, versionKey).Result()
	if errors.Is(err, redis.Nil) {
		v = "0"
	} else if err != nil {
		return "", err
	}
	return "catalog:" + v + ":" + name, nil
}

// GetJSON loads name into dst. It reports false on a miss.
func (c *Cache) GetJSON(ctx context.Context, name string, dst any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	key, err := c.key(ctx, name)
	if err != nil {
		return false, fmt.Errorf("cache version: %w", err)
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", name, err)
	}
	return true, nil
}

// SetJSON stores v under name for the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, name string, v any) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", name, err)
	}
	key, err := c.key(ctx, name)
	if err != nil {
		return fmt.Errorf("cache version: %w", err)
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate makes every entry written so far unreachable.
func (c *Cache) Invalidate(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	v, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	c.logger.Debug("catalog cache invalidated", zap.String("version", strconv.FormatInt(v, 10)))
	return nil
}

// Remember returns the cached value for name, or calls load and caches its result.
// Cache failures are logged and never fail the read.
func Remember[T any](ctx context.Context, c *Cache, name string, load func(context.Context) (T, error)) (T, error) {
	var v T
	if c.enabled() {
		hit, err := c.GetJSON(ctx, name, &v)
		if err != nil {
			c.logger.Warn("cache read failed", zap.String("key", name), zap.Error(err))
		} else if hit {
			return v, nil
		}
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if c.enabled() {
		if err := c.SetJSON(ctx, name, v); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", name), zap.Error(err))
		}
	}
	return v, nil
}
