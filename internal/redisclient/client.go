package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetJSON reads a cached JSON value into dest. Returns false when the
// key is absent.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to decode cached value for %s: %w", key, err)
	}
	return true, nil
}

// SetJSON caches a JSON-encoded value with a TTL
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// Delete removes cached keys
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// LaneLockCacheKey builds the cache key for a lane's lock view
func LaneLockCacheKey(country, category string) string {
	return fmt.Sprintf("lanelock:%s:%s", country, category)
}

// SupplierCacheKey builds the cache key for a supplier profile
func SupplierCacheKey(id string) string {
	return fmt.Sprintf("supplier:%s", id)
}

// RateLimiter is a fixed-window per-key limiter backed by Redis.
// Injected where limiting is needed so no package carries its own
// process-global counter map.
type RateLimiter struct {
	rdb       *redis.Client
	perMinute int
}

// NewRateLimiter creates a limiter allowing perMinute requests per key
func (c *Client) NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{rdb: c.rdb, perMinute: perMinute}
}

// CheckAndConsume consumes one slot for the key, reporting whether the
// request is within the current window's budget.
func (rl *RateLimiter) CheckAndConsume(ctx context.Context, key string) (bool, error) {
	window := time.Now().Unix() / 60
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, window)

	pipe := rl.rdb.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return count.Val() <= int64(rl.perMinute), nil
}
