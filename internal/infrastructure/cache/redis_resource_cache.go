package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "orderdesk:cache:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisResourceCache shares cached resources between desk instances.
// Redis expires keys after ttl; Get also checks the stored timestamp.
type RedisResourceCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time
}

// NewRedisResourceCache connects to Redis and verifies the connection
func NewRedisResourceCache(cfg RedisConfig, keyPrefix string, ttl time.Duration) (*RedisResourceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisResourceCacheWithClient(client, keyPrefix, ttl), nil
}

// NewRedisResourceCacheWithClient wraps an existing client
func NewRedisResourceCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisResourceCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisResourceCache{client: client, keyPrefix: keyPrefix, ttl: ttl, now: time.Now}
}

// Get implements ResourceCache
func (c *RedisResourceCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis cache get %s: %w", key, err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// unreadable blob, treat as a miss
		_ = c.client.Del(ctx, c.keyPrefix+key).Err()
		return Entry{}, false, nil
	}
	if !e.Fresh(c.now(), c.ttl) {
		_ = c.client.Del(ctx, c.keyPrefix+key).Err()
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Set implements ResourceCache
func (c *RedisResourceCache) Set(ctx context.Context, key string, data json.RawMessage) error {
	if c.ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(Entry{Data: data, Timestamp: c.now()})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set %s: %w", key, err)
	}
	return nil
}

// Delete implements ResourceCache
func (c *RedisResourceCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.keyPrefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis cache delete: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisResourceCache) Close() error {
	return c.client.Close()
}

var _ ResourceCache = (*RedisResourceCache)(nil)
