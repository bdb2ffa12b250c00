package oddscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "odds:line:"

// RedisCache shares remembered lines between server instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps a connected client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

// NewRedisCacheFromURL parses a redis:// URL and pings the server.
func NewRedisCacheFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return NewRedisCache(client, ttl), nil
}

// Get reads and decodes a line.
func (c *RedisCache) Get(ctx context.Context, key string) (Line, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Line{}, false, nil
	}
	if err != nil {
		return Line{}, false, fmt.Errorf("reading line %s: %w", key, err)
	}

	var line Line
	if err := json.Unmarshal(data, &line); err != nil {
		return Line{}, false, fmt.Errorf("decoding line %s: %w", key, err)
	}
	return line, true, nil
}

// Set writes a line with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, line Line) error {
	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("marshaling line: %w", err)
	}
	return c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err()
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
