package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "worldonfire"

// Cache wraps a Redis client for API response caching. A nil *Cache is valid
// and behaves as an always-empty cache.
type Cache struct {
	client *redis.Client
}

// NewCache connects to Redis at addr
func NewCache(ctx context.Context, addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &Cache{client: client}, nil
}

// Key builds a namespaced cache key. Parameters are hashed to keep keys short.
func Key(name string, params ...string) string {
	if len(params) == 0 {
		return keyPrefix + ":" + name
	}
	hash := sha256.Sum256([]byte(strings.Join(params, "\x00")))
	return fmt.Sprintf("%s:%s:%x", keyPrefix, name, hash[:8])
}

// GetJSON decodes the value at key into dst. It reports false on a miss;
// undecodable entries are deleted and reported as a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		slog.Warn("Dropping undecodable cache entry", "key", key, "error", err)
		c.client.Del(ctx, key)
		return false, nil
	}

	return true, nil
}

// SetJSON stores value encoded as JSON with the given TTL
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes keys from cache
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete keys %v: %w", keys, err)
	}
	return nil
}

// InvalidateNews drops every cached news response.
func (c *Cache) InvalidateNews(ctx context.Context) error {
	if c == nil {
		return nil
	}

	var keys []string
	iter := c.client.Scan(ctx, 0, keyPrefix+":news:*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan news keys: %w", err)
	}

	return c.Delete(ctx, append(keys, Key("heatmap"))...)
}

// Health returns cache health information
func (c *Cache) Health(ctx context.Context) map[string]any {
	if c == nil {
		return map[string]any{"status": "disabled", "type": "redis"}
	}

	health := map[string]any{
		"status": "healthy",
		"type":   "redis",
	}

	if err := c.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
		return health
	}

	if size, err := c.client.DBSize(ctx).Result(); err == nil {
		health["key_count"] = size
	}

	return health
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
