package consumer

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"aws-sqs-fifo-worker/internal/app/message"
	"aws-sqs-fifo-worker/internal/pkg/cache"
	"aws-sqs-fifo-worker/internal/pkg/logger"
	"aws-sqs-fifo-worker/internal/pkg/observability/metrics"
	"aws-sqs-fifo-worker/internal/pkg/queue"
	"aws-sqs-fifo-worker/internal/pkg/retry"
)

const tracerName = "aws-sqs-fifo-worker/consumer"

type Config struct {
	MaxDuration              time.Duration // Total run budget
	WaitTimeSeconds          int32         // Long-poll wait per receive
	VisibilityTimeoutSeconds int32         // Hide window for a received message
	InitialBackoff           time.Duration // First wait after a transient error
	MaxBackoff               time.Duration
	CacheTTL                 time.Duration // How long a processed id is remembered
}

// Stats counts what a run did.
type Stats struct {
	Polls     int
	Empty     int
	Received  int
	Processed int
	Deleted   int
	Skipped   int // redeliveries dropped by the processed-message cache
	Errors    int
}

// Consumer drains a queue one message at a time for a bounded duration.
type Consumer struct {
	Queue   queue.QueueClient
	Handler message.Handler
	Config  *Config

	// Cache is optional. When set, ids of processed messages are remembered
	// for Config.CacheTTL and redeliveries are deleted without reprocessing.
	Cache cache.Client

	// OnError receives every receive, process and delete error.
	OnError func(err error)

	// Now is replaceable for tests. It drives both the run budget and the
	// backoff cap.
	Now func() time.Time

	// Tracer starts one consumer span per received message.
	Tracer trace.Tracer
}

func New(q queue.QueueClient, h message.Handler, c *Config) (*Consumer, error) {
	if q == nil {
		return nil, errors.New("queue client is required")
	}
	if h == nil {
		return nil, errors.New("message handler is required")
	}
	if c == nil || c.MaxDuration <= 0 {
		return nil, errors.New("consumer max duration must be greater than 0")
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	return &Consumer{
		Queue:   q,
		Handler: h,
		Config:  c,
		Now:     time.Now,
		Tracer:  otel.Tracer(tracerName),
	}, nil
}

// Run polls while less than MaxDuration has elapsed since it started and ctx
// is alive. A received message is processed, then deleted; delete is never
// attempted for a message whose processing failed.
//
// Transient errors are reported, backed off and treated as an empty poll.
// Terminal errors end the run and are returned. Cancelling ctx ends the run
// without error.
func (c *Consumer) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	start := c.Now()
	deadline := start.Add(c.Config.MaxDuration)
	backoff := &retry.Backoff{Initial: c.Config.InitialBackoff, Max: c.Config.MaxBackoff}
	opts := queue.ReceiveOptions{
		WaitTimeSeconds:          c.Config.WaitTimeSeconds,
		VisibilityTimeoutSeconds: c.Config.VisibilityTimeoutSeconds,
	}

	logger.Info("Consumer started",
		zap.String("endpoint", c.Queue.Endpoint()),
		zap.Duration("maxDuration", c.Config.MaxDuration),
		zap.Int32("waitTimeSeconds", c.Config.WaitTimeSeconds),
	)

	for c.Now().Sub(start) < c.Config.MaxDuration {
		if ctx.Err() != nil {
			logger.Info("Consumer cancelled", zap.String("endpoint", c.Queue.Endpoint()))
			return stats, nil
		}

		msg, err := c.Queue.Receive(ctx, opts)
		stats.Polls++
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("Consumer cancelled during receive", zap.String("endpoint", c.Queue.Endpoint()))
				return stats, nil
			}
			stats.Errors++
			metrics.ReceiveFailures.Inc()
			c.report(err)
			if queue.IsTerminal(err) {
				logger.Error("Receive failed, stopping consumer", zap.String("endpoint", c.Queue.Endpoint()), zap.Error(err))
				return stats, err
			}
			delay := retry.Remaining(backoff.Next(), deadline, c.Now())
			logger.Warn("Receive failed, backing off",
				zap.String("endpoint", c.Queue.Endpoint()),
				zap.Duration("backoff", delay),
				zap.Error(err),
			)
			if err := retry.Wait(ctx, delay); err != nil {
				return stats, nil
			}
			continue
		}
		backoff.Reset()

		if msg == nil {
			stats.Empty++
			metrics.EmptyPolls.Inc()
			continue
		}

		stats.Received++
		metrics.MessagesReceived.Inc()
		if err := c.handle(ctx, *msg, &stats); err != nil {
			if ctx.Err() != nil {
				return stats, nil
			}
			return stats, err
		}
	}

	logger.Info("Consumer time budget exhausted",
		zap.String("endpoint", c.Queue.Endpoint()),
		zap.Int("polls", stats.Polls),
		zap.Int("processed", stats.Processed),
		zap.Int("deleted", stats.Deleted),
	)
	return stats, nil
}

// handle processes and acknowledges one message. Only terminal delete errors
// are returned.
func (c *Consumer) handle(ctx context.Context, msg queue.InboundMessage, stats *Stats) error {
	ctx, span := c.Tracer.Start(ctx, "consumer.handle",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "aws_sqs"),
			attribute.String("messaging.destination.name", c.Queue.Endpoint()),
			attribute.String("messaging.message.id", msg.ID),
		),
	)
	defer span.End()
	// without a recording provider the message id stands in for the trace id
	ctx = logger.WithTraceID(ctx, msg.ID)

	key := ""
	if c.Cache != nil {
		key = c.Cache.KeyPrefix() + msg.ID
		_, err := c.Cache.Get(ctx, key)
		switch {
		case err == nil:
			logger.WarnCtx(ctx, "Duplicate message detected", zap.String("messageId", msg.ID))
			stats.Skipped++
			metrics.DuplicatesSkipped.Inc()
			return c.delete(ctx, msg, stats)
		case !errors.Is(err, cache.ErrNotFound):
			// an unreachable cache must not block processing
			logger.WarnCtx(ctx, "Processed-message cache lookup failed", zap.String("messageId", msg.ID), zap.Error(err))
		}
	}

	started := time.Now()
	err := c.Handler.Process(ctx, msg)
	metrics.MessageProcessingTime.Observe(time.Since(started).Seconds())
	if err != nil {
		// left undeleted; SQS redelivers it after the visibility timeout, the
		// redis backend keeps it in its processing list
		stats.Errors++
		metrics.MessagesFailed.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "process failed")
		logger.ErrorCtx(ctx, "Message processing failed", zap.String("messageId", msg.ID), zap.Error(err))
		c.report(err)
		return nil
	}
	stats.Processed++
	metrics.MessagesProcessed.Inc()

	if c.Cache != nil {
		if err := c.Cache.Set(ctx, key, "1", c.Config.CacheTTL); err != nil {
			logger.ErrorCtx(ctx, "Failed to cache processed message", zap.String("messageId", msg.ID), zap.Error(err))
		}
	}

	return c.delete(ctx, msg, stats)
}

func (c *Consumer) delete(ctx context.Context, msg queue.InboundMessage, stats *Stats) error {
	if err := c.Queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		stats.Errors++
		metrics.DeleteFailures.Inc()
		logger.ErrorCtx(ctx, "Failed to delete message",
			zap.String("endpoint", c.Queue.Endpoint()),
			zap.String("messageId", msg.ID),
			zap.String("receiptHandle", msg.ReceiptHandle),
			zap.Error(err),
		)
		c.report(err)
		if queue.IsTerminal(err) {
			return err
		}
		return nil
	}
	stats.Deleted++
	metrics.MessagesDeleted.Inc()
	return nil
}

func (c *Consumer) report(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}
