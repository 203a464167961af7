package redisCache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"aws-sqs-fifo-worker/internal/pkg/cache"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = cache.ErrNotFound

var _ cache.Client = (*RedisRepository)(nil)

// RedisRepository implements the cache.Client interface using Redis as backend.
type RedisRepository struct {
	Client *redis.Client // Redis client instance
	Config *Config       // Configuration for Redis cache
}

type Config struct {
	KeyPrefix string // Prefix for processed-message keys in Redis
}

// NewClient creates a new redis client
func NewClient(addr string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   "",
		DB:         db,
		MaxRetries: 10,
	})
}

func (r *RedisRepository) KeyPrefix() string {
	return r.Config.KeyPrefix
}

// Get retrieves a value by key from Redis.
func (r *RedisRepository) Get(ctx context.Context, key string) (string, error) {
	v, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

// Set sets a value with expiration in Redis.
func (r *RedisRepository) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return r.Client.Set(ctx, key, value, expiration).Err()
}

// Delete removes a key from Redis.
func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}
