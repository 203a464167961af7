package redisQueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aws-sqs-fifo-worker/internal/pkg/queue"
)

func newQueue(t *testing.T) (*RedisActions, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q, err := New(client, &Config{Key: "fifo-demo"})
	require.NoError(t, err)
	return q, mr
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(redis.NewClient(&redis.Options{}), &Config{})
	assert.ErrorIs(t, err, queue.ErrEmptyEndpoint)
}

func TestSendReceiveDelete(t *testing.T) {
	q, mr := newQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, queue.OutboundMessage{Body: "first", GroupID: "g"}))
	require.NoError(t, q.Send(ctx, queue.OutboundMessage{Body: "second", GroupID: "g"}))

	msg, err := q.Receive(ctx, queue.ReceiveOptions{WaitTimeSeconds: 1})
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "first", msg.Body)
	assert.NotEmpty(t, msg.ID)

	processing, err := mr.List("fifo-demo:processing")
	require.NoError(t, err)
	assert.Len(t, processing, 1)

	require.NoError(t, q.Delete(ctx, msg.ReceiptHandle))
	assert.False(t, mr.Exists("fifo-demo:processing"))

	msg, err = q.Receive(ctx, queue.ReceiveOptions{})
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "second", msg.Body)
}

func TestReceive_Empty(t *testing.T) {
	q, _ := newQueue(t)

	msg, err := q.Receive(context.Background(), queue.ReceiveOptions{})
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestSend_Deduplicates(t *testing.T) {
	q, mr := newQueue(t)
	ctx := context.Background()

	out := queue.OutboundMessage{Body: "b", GroupID: "g", DeduplicationID: "d1"}
	require.NoError(t, q.Send(ctx, out))
	require.NoError(t, q.Send(ctx, out))

	items, err := mr.List("fifo-demo")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// the window expires with the dedup key
	mr.FastForward(DedupWindow)
	require.NoError(t, q.Send(ctx, out))
	items, err = mr.List("fifo-demo")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDelete_UnknownReceiptHandle(t *testing.T) {
	q, _ := newQueue(t)

	err := q.Delete(context.Background(), "r1")
	var delErr *queue.DeleteError
	require.ErrorAs(t, err, &delErr)
	assert.Equal(t, "r1", delErr.ReceiptHandle)
	assert.Equal(t, "fifo-demo", delErr.Endpoint)
}

func TestReceive_InvalidEnvelope(t *testing.T) {
	q, mr := newQueue(t)

	_, err := mr.Lpush("fifo-demo", "not-json")
	require.NoError(t, err)

	_, err = q.Receive(context.Background(), queue.ReceiveOptions{})
	var recvErr *queue.ReceiveError
	require.ErrorAs(t, err, &recvErr)
	assert.False(t, mr.Exists("fifo-demo:processing"))
}

func TestSend_FailedPushReleasesDedupMarker(t *testing.T) {
	q, mr := newQueue(t)
	ctx := context.Background()

	// a string under the list key makes LPUSH fail with WRONGTYPE
	require.NoError(t, mr.Set("fifo-demo", "not-a-list"))

	out := queue.OutboundMessage{Body: "b", GroupID: "g", DeduplicationID: "d1"}
	err := q.Send(ctx, out)
	var sendErr *queue.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Contains(t, err.Error(), "WRONGTYPE")
	assert.False(t, mr.Exists("fifo-demo:dedup:d1"))

	mr.Del("fifo-demo")
	require.NoError(t, q.Send(ctx, out))

	msg, err := q.Receive(ctx, queue.ReceiveOptions{})
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "b", msg.Body)
}

func TestReceive_UndeletedMessageStaysInProcessing(t *testing.T) {
	q, mr := newQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, queue.OutboundMessage{Body: "b", GroupID: "g"}))
	msg, err := q.Receive(ctx, queue.ReceiveOptions{VisibilityTimeoutSeconds: 1})
	require.NoError(t, err)
	require.NotNil(t, msg)

	mr.FastForward(time.Minute)

	again, err := q.Receive(ctx, queue.ReceiveOptions{})
	require.NoError(t, err)
	assert.Nil(t, again)
	processing, err := mr.List("fifo-demo:processing")
	require.NoError(t, err)
	assert.Equal(t, []string{msg.ReceiptHandle}, processing)
}
