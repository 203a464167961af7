package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"aws-sqs-fifo-worker/internal/app/message"
	"aws-sqs-fifo-worker/internal/pkg/logger"
	"aws-sqs-fifo-worker/internal/pkg/observability/metrics"
	"aws-sqs-fifo-worker/internal/pkg/queue"
)

type DedupPolicy string

const (
	// DedupTimestamp salts the body hash with the send time, so only
	// same-millisecond replays are deduplicated.
	DedupTimestamp DedupPolicy = "timestamp"
	// DedupContent hashes the body alone.
	DedupContent DedupPolicy = "content"
)

type Config struct {
	Interval    time.Duration // Time between ticks
	GroupID     string        // Fixed message group for every send
	Deduplicate bool          // Attach a deduplication id to each send
	DedupPolicy DedupPolicy
}

// Producer sends a new synthetic message on every tick, independent of
// consumer progress.
type Producer struct {
	Queue  queue.QueueClient
	Config *Config

	// Now and NewBody are replaceable for tests.
	Now     func() time.Time
	NewBody func() (string, error)

	wg sync.WaitGroup
}

func New(q queue.QueueClient, c *Config) (*Producer, error) {
	if q == nil {
		return nil, errors.New("queue client is required")
	}
	if c == nil || c.Interval <= 0 {
		return nil, errors.New("producer interval must be greater than 0")
	}
	if c.GroupID == "" {
		return nil, errors.New("message group id is required")
	}
	if c.DedupPolicy == "" {
		c.DedupPolicy = DedupTimestamp
	}
	return &Producer{
		Queue:   q,
		Config:  c,
		Now:     time.Now,
		NewBody: randomBody,
	}, nil
}

func randomBody() (string, error) {
	data, err := json.Marshal(message.NewPayload())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Run ticks until ctx is done, then waits for in-flight sends to finish.
// Each tick runs in its own goroutine; its failure is logged and does not
// stop later ticks.
func (p *Producer) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Config.Interval)
	defer ticker.Stop()
	defer p.wg.Wait()

	logger.Info("Producer started",
		zap.String("endpoint", p.Queue.Endpoint()),
		zap.Duration("interval", p.Config.Interval),
	)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping producer")
			return nil
		case <-ticker.C:
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				defer p.recoverTick()
				if err := p.Tick(ctx); err != nil {
					logger.Error("Producer tick failed", zap.String("endpoint", p.Queue.Endpoint()), zap.Error(err))
				}
			}()
		}
	}
}

// Tick builds a payload and sends it.
func (p *Producer) Tick(ctx context.Context) error {
	body, err := p.NewBody()
	if err != nil {
		return fmt.Errorf("failed to build payload: %w", err)
	}
	return p.Send(ctx, body, p.Config.Deduplicate)
}

// Send submits body with the configured group id and, if deduplicate is set,
// a deduplication id computed per the configured policy.
func (p *Producer) Send(ctx context.Context, body string, deduplicate bool) error {
	msg := queue.OutboundMessage{
		Body:    body,
		GroupID: p.Config.GroupID,
	}
	if deduplicate {
		msg.DeduplicationID = p.deduplicationID(body)
	}

	if err := p.Queue.Send(ctx, msg); err != nil {
		metrics.SendFailures.Inc()
		return err
	}
	metrics.MessagesSent.Inc()
	return nil
}

func (p *Producer) deduplicationID(body string) string {
	if p.Config.DedupPolicy == DedupContent {
		return queue.ContentDeduplicationID(body)
	}
	return queue.DeduplicationID(body, p.Now())
}

func (p *Producer) recoverTick() {
	if r := recover(); r != nil {
		metrics.SendFailures.Inc()
		logger.Error("Producer tick panic", zap.Any("panic", r), zap.String("stack", string(debug.Stack())))
	}
}
