package redisCache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aws-sqs-fifo-worker/internal/pkg/cache"
)

func TestRedisRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := &RedisRepository{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		Config: &Config{KeyPrefix: "fifo-processed-"},
	}
	ctx := context.Background()

	assert.Equal(t, "fifo-processed-", repo.KeyPrefix())

	_, err := repo.Get(ctx, "fifo-processed-m1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set(ctx, "fifo-processed-m1", "1", time.Minute))
	v, err := repo.Get(ctx, "fifo-processed-m1")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	mr.FastForward(time.Minute)
	_, err = repo.Get(ctx, "fifo-processed-m1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set(ctx, "fifo-processed-m2", "1", 0))
	require.NoError(t, repo.Delete(ctx, "fifo-processed-m2"))
	_, err = repo.Get(ctx, "fifo-processed-m2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRepository_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	repo := &RedisRepository{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}),
		Config: &Config{KeyPrefix: "fifo-processed-"},
	}
	mr.Close()

	_, err := repo.Get(context.Background(), "fifo-processed-m1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, cache.ErrNotFound)
}
