package runner

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aws-sqs-fifo-worker/internal/app/consumer"
	"aws-sqs-fifo-worker/internal/app/producer"
	apphttp "aws-sqs-fifo-worker/internal/pkg/http"
	"aws-sqs-fifo-worker/internal/pkg/logger"
)

// Runner owns the producer and consumer of one run. The producer and the
// optional metrics server live exactly as long as the consumer loop.
type Runner struct {
	Consumer    *consumer.Consumer
	Producer    *producer.Producer // nil disables sending
	MetricsAddr string             // empty disables the metrics server
}

func New(c *consumer.Consumer, p *producer.Producer, metricsAddr string) (*Runner, error) {
	if c == nil {
		return nil, errors.New("consumer is required")
	}
	return &Runner{Consumer: c, Producer: p, MetricsAddr: metricsAddr}, nil
}

// Run starts the background tasks, runs the consumer to completion, then
// stops the producer and waits for it, so nothing is sent into a queue that
// is no longer drained.
func (r *Runner) Run(ctx context.Context) (consumer.Stats, error) {
	g, gctx := errgroup.WithContext(ctx)
	bgCtx, stop := context.WithCancel(gctx)
	defer stop()

	if r.Producer != nil {
		g.Go(func() error { return r.Producer.Run(bgCtx) })
	}
	if r.MetricsAddr != "" {
		g.Go(func() error { return apphttp.Serve(bgCtx, r.MetricsAddr) })
	}

	stats, err := r.Consumer.Run(gctx)
	stop()
	if werr := g.Wait(); werr != nil && err == nil {
		err = werr
	}

	logger.Info("Run finished",
		zap.Int("polls", stats.Polls),
		zap.Int("processed", stats.Processed),
		zap.Int("deleted", stats.Deleted),
		zap.Int("errors", stats.Errors),
	)
	return stats, err
}
