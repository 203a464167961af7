package runner

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aws-sqs-fifo-worker/internal/app/consumer"
	"aws-sqs-fifo-worker/internal/app/message"
	"aws-sqs-fifo-worker/internal/app/producer"
	"aws-sqs-fifo-worker/internal/pkg/queue"
	"aws-sqs-fifo-worker/internal/pkg/queue/queuetest"
)

// loopback feeds sent messages back to receivers in send order.
func loopback() *queuetest.Fake {
	var mu sync.Mutex
	var pending []queue.OutboundMessage
	seq := 0

	fake := &queuetest.Fake{}
	fake.SendFunc = func(ctx context.Context, msg queue.OutboundMessage) error {
		mu.Lock()
		defer mu.Unlock()
		pending = append(pending, msg)
		return nil
	}
	fake.ReceiveFunc = func(ctx context.Context, opts queue.ReceiveOptions) (*queue.InboundMessage, error) {
		mu.Lock()
		if len(pending) > 0 {
			m := pending[0]
			pending = pending[1:]
			seq++
			id := strconv.Itoa(seq)
			mu.Unlock()
			return &queue.InboundMessage{ID: id, Body: m.Body, ReceiptHandle: "r" + id}, nil
		}
		mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, &queue.ReceiveError{Endpoint: fake.Endpoint(), Err: ctx.Err()}
		case <-time.After(2 * time.Millisecond):
			return nil, nil
		}
	}
	return fake
}

func TestNew_RequiresConsumer(t *testing.T) {
	_, err := New(nil, nil, "")
	assert.Error(t, err)
}

func TestRun_ProducerStoppedWhenConsumerEnds(t *testing.T) {
	fake := loopback()

	p, err := producer.New(fake, &producer.Config{Interval: 5 * time.Millisecond, GroupID: "g", Deduplicate: true})
	require.NoError(t, err)

	var out syncBuffer
	c, err := consumer.New(fake, message.NewPrintHandler(&out), &consumer.Config{MaxDuration: 150 * time.Millisecond})
	require.NoError(t, err)

	r, err := New(c, p, "")
	require.NoError(t, err)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Greater(t, stats.Processed, 0)
	assert.Equal(t, stats.Processed, stats.Deleted)
	assert.Contains(t, out.String(), "Processing message")

	sent := len(fake.Sent())
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, sent, len(fake.Sent()), "producer kept sending after the run ended")
}

func TestRun_CancelStopsEverything(t *testing.T) {
	fake := loopback()

	p, err := producer.New(fake, &producer.Config{Interval: 5 * time.Millisecond, GroupID: "g"})
	require.NoError(t, err)
	c, err := consumer.New(fake, message.NewPrintHandler(&syncBuffer{}), &consumer.Config{MaxDuration: time.Hour})
	require.NoError(t, err)
	r, err := New(c, p, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx)
		done <- err
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

// syncBuffer is a goroutine-safe output sink for the print handler.
type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
