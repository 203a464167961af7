package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aws-sqs-fifo-worker/configs"
)

func TestNewQueue_SQS(t *testing.T) {
	cfg := &configs.Config{
		QueueType:               configs.QueueTypeSQS,
		QueueURL:                "https://sqs.us-east-1.amazonaws.com/123456789012/TestQueue.fifo",
		QueueAwsSqsServiceURL:   "http://127.0.0.1:9324",
		QueueAwsAccessKeyID:     "key",
		QueueAwsSecretAccessKey: "secret",
	}

	q, err := newQueue(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.QueueURL, q.Endpoint())
}

func TestNewRunner_RedisEndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &configs.Config{
		QueueType:                   configs.QueueTypeRedis,
		QueueURL:                    "fifo-demo",
		QueueRedisEndpoint:          mr.Addr(),
		QueueMessageGroupID:         "g",
		ProducerEnabled:             true,
		ProducerDeduplicate:         true,
		ProducerDedupPolicy:         configs.DedupPolicyTimestamp,
		ProducerIntervalDuration:    10 * time.Millisecond,
		ConsumerMaxDuration:         300 * time.Millisecond,
		RetryInitialBackoffDuration: time.Millisecond,
		RetryMaxBackoffDuration:     10 * time.Millisecond,
		CacheRedisEndpoint:          mr.Addr(),
		CacheKeyPrefix:              "fifo-processed-",
		CacheTTLDuration:            time.Minute,
	}

	q, err := newQueue(context.Background(), cfg)
	require.NoError(t, err)
	r, err := newRunner(cfg, q)
	require.NoError(t, err)
	require.NotNil(t, r.Producer)
	require.NotNil(t, r.Consumer.Cache)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, stats.Processed, 0)
	assert.Equal(t, stats.Processed, stats.Deleted)
}

func TestNewRunner_ProducerDisabled(t *testing.T) {
	cfg := &configs.Config{
		QueueType:           configs.QueueTypeRedis,
		QueueURL:            "fifo-demo",
		QueueRedisEndpoint:  "127.0.0.1:0",
		ConsumerMaxDuration: time.Second,
	}
	q, err := newQueue(context.Background(), cfg)
	require.NoError(t, err)

	r, err := newRunner(cfg, q)
	require.NoError(t, err)
	assert.Nil(t, r.Producer)
	assert.Nil(t, r.Consumer.Cache)
}
