package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"aws-sqs-fifo-worker/configs"
	"aws-sqs-fifo-worker/internal/app/consumer"
	"aws-sqs-fifo-worker/internal/app/message"
	"aws-sqs-fifo-worker/internal/app/producer"
	"aws-sqs-fifo-worker/internal/app/runner"
	"aws-sqs-fifo-worker/internal/pkg/cache"
	redisCache "aws-sqs-fifo-worker/internal/pkg/cache/redis"
	"aws-sqs-fifo-worker/internal/pkg/logger"
	"aws-sqs-fifo-worker/internal/pkg/observability/metrics"
	"aws-sqs-fifo-worker/internal/pkg/observability/tracing"
	"aws-sqs-fifo-worker/internal/pkg/queue"
	redisQueue "aws-sqs-fifo-worker/internal/pkg/queue/redis"
	"aws-sqs-fifo-worker/internal/pkg/queue/sqs"
)

func main() {
	if err := logger.Setup(""); err != nil {
		panic(err)
	}

	cfg, err := configs.Parse()
	if err != nil {
		logger.Fatal("unable to set config", zap.Error(err))
	}
	if err := logger.Setup(cfg.LogLevel); err != nil {
		logger.Fatal("unable to set logger", zap.Error(err))
	}
	defer logger.Sync()

	metrics.Setup()

	shutdownTracing, err := tracing.Setup(&tracing.Config{
		ServiceName: cfg.ServiceName,
		Exporter:    cfg.TraceExporter,
		SampleRate:  cfg.TraceSampleRate,
	}, os.Stderr)
	if err != nil {
		logger.Fatal("unable to set tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("failed to flush traces", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q, err := newQueue(ctx, cfg)
	if err != nil {
		logger.Fatal("unable to set queue", zap.Error(err))
	}

	r, err := newRunner(cfg, q)
	if err != nil {
		logger.Fatal("unable to set runner", zap.Error(err))
	}

	if _, err := r.Run(ctx); err != nil {
		// os.Exit skips deferred calls, so flush and release the signal first
		stop()
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = shutdownTracing(flushCtx)
		cancel()
		logger.Error("run failed", zap.String("endpoint", q.Endpoint()), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func newQueue(ctx context.Context, cfg *configs.Config) (queue.QueueClient, error) {
	switch cfg.QueueType {
	case configs.QueueTypeSQS:
		sqsConfig := &sqs.Config{
			QueueUrl:        cfg.QueueURL,
			Region:          cfg.QueueAwsSqsRegion,
			ServiceURL:      cfg.QueueAwsSqsServiceURL,
			AccessKeyID:     cfg.QueueAwsAccessKeyID,
			SecretAccessKey: cfg.QueueAwsSecretAccessKey,
		}
		client, err := sqs.NewClient(ctx, sqsConfig)
		if err != nil {
			return nil, err
		}
		return sqs.New(client, sqsConfig)
	case configs.QueueTypeRedis:
		client := redisQueue.NewClient(cfg.QueueRedisEndpoint, cfg.QueueRedisDB)
		return redisQueue.New(client, &redisQueue.Config{Key: cfg.QueueURL})
	}
	return nil, errors.New("unsupported queue type: " + cfg.QueueType)
}

func newCache(cfg *configs.Config) cache.Client {
	if cfg.CacheRedisEndpoint == "" {
		return nil
	}
	return &redisCache.RedisRepository{
		Client: redisCache.NewClient(cfg.CacheRedisEndpoint, cfg.CacheRedisDB),
		Config: &redisCache.Config{KeyPrefix: cfg.CacheKeyPrefix},
	}
}

func newRunner(cfg *configs.Config, q queue.QueueClient) (*runner.Runner, error) {
	c, err := consumer.New(q, message.NewPrintHandler(os.Stdout), &consumer.Config{
		MaxDuration:              cfg.ConsumerMaxDuration,
		WaitTimeSeconds:          cfg.QueueWaitTimeSeconds,
		VisibilityTimeoutSeconds: cfg.QueueVisibilityTimeoutSeconds,
		InitialBackoff:           cfg.RetryInitialBackoffDuration,
		MaxBackoff:               cfg.RetryMaxBackoffDuration,
		CacheTTL:                 cfg.CacheTTLDuration,
	})
	if err != nil {
		return nil, err
	}
	if dc := newCache(cfg); dc != nil {
		c.Cache = dc
	}

	var p *producer.Producer
	if cfg.ProducerEnabled {
		p, err = producer.New(q, &producer.Config{
			Interval:    cfg.ProducerIntervalDuration,
			GroupID:     cfg.QueueMessageGroupID,
			Deduplicate: cfg.ProducerDeduplicate,
			DedupPolicy: producer.DedupPolicy(cfg.ProducerDedupPolicy),
		})
		if err != nil {
			return nil, err
		}
	}

	return runner.New(c, p, cfg.MetricsAddr)
}
