package redisQueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"aws-sqs-fifo-worker/internal/pkg/queue"
)

// DedupWindow matches the SQS FIFO deduplication interval.
const DedupWindow = 5 * time.Minute

var _ queue.QueueClient = (*RedisActions)(nil)

// RedisActions provides a FIFO queue on a Redis list for local runs.
// Visibility timeouts are not emulated: a received message stays in the
// processing list until it is deleted, even when its processing failed.
type RedisActions struct {
	Client *redis.Client // Redis client
	Config *Config       // Configuration for Redis queue
}

type Config struct {
	Key string // Redis list key, used as the queue endpoint
}

// envelope is the list element stored for each message.
type envelope struct {
	ID              string `json:"id"`
	Body            string `json:"body"`
	GroupID         string `json:"groupId"`
	DeduplicationID string `json:"deduplicationId,omitempty"`
}

// NewClient creates a new redis client
func NewClient(addr string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
}

// New creates a new RedisActions instance.
func New(client *redis.Client, c *Config) (*RedisActions, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if c == nil || c.Key == "" {
		return nil, queue.ErrEmptyEndpoint
	}
	return &RedisActions{Client: client, Config: c}, nil
}

func (q *RedisActions) Endpoint() string {
	return q.Config.Key
}

func (q *RedisActions) processingKey() string {
	return q.Config.Key + ":processing"
}

func (q *RedisActions) dedupKey(id string) string {
	return q.Config.Key + ":dedup:" + id
}

// Send pushes the message onto the list. A message whose deduplication id was
// already seen inside DedupWindow is accepted but not enqueued again. The
// dedup marker is released when the push fails, so a retry is not swallowed.
func (q *RedisActions) Send(ctx context.Context, msg queue.OutboundMessage) error {
	var dedupKey string
	if msg.DeduplicationID != "" {
		dedupKey = q.dedupKey(msg.DeduplicationID)
		fresh, err := q.Client.SetNX(ctx, dedupKey, 1, DedupWindow).Result()
		if err != nil {
			return &queue.SendError{Endpoint: q.Config.Key, Err: err}
		}
		if !fresh {
			return nil
		}
	}

	err := q.push(ctx, msg)
	if err != nil && dedupKey != "" {
		if derr := q.Client.Del(context.WithoutCancel(ctx), dedupKey).Err(); derr != nil {
			err = errors.Join(err, fmt.Errorf("release dedup marker: %w", derr))
		}
	}
	return err
}

func (q *RedisActions) push(ctx context.Context, msg queue.OutboundMessage) error {
	data, err := json.Marshal(envelope{
		ID:              uuid.NewString(),
		Body:            msg.Body,
		GroupID:         msg.GroupID,
		DeduplicationID: msg.DeduplicationID,
	})
	if err != nil {
		return &queue.SendError{Endpoint: q.Config.Key, Err: err}
	}

	if err := q.Client.LPush(ctx, q.Config.Key, data).Err(); err != nil {
		return &queue.SendError{Endpoint: q.Config.Key, Err: err}
	}
	return nil
}

// Receive moves the oldest message into the processing list, waiting up to
// WaitTimeSeconds. The raw list element is the receipt handle.
func (q *RedisActions) Receive(ctx context.Context, opts queue.ReceiveOptions) (*queue.InboundMessage, error) {
	var res string
	var err error
	if opts.WaitTimeSeconds > 0 {
		// BLMOVE blocks forever on a zero timeout, so it is only used for real waits
		timeout := time.Duration(opts.WaitTimeSeconds) * time.Second
		res, err = q.Client.BLMove(ctx, q.Config.Key, q.processingKey(), "RIGHT", "LEFT", timeout).Result()
	} else {
		res, err = q.Client.LMove(ctx, q.Config.Key, q.processingKey(), "RIGHT", "LEFT").Result()
	}
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &queue.ReceiveError{Endpoint: q.Config.Key, Err: err}
	}

	var env envelope
	if err := json.Unmarshal([]byte(res), &env); err != nil {
		// drop the unreadable element so it does not block the processing list
		q.Client.LRem(ctx, q.processingKey(), 1, res)
		return nil, &queue.ReceiveError{Endpoint: q.Config.Key, Err: fmt.Errorf("invalid envelope: %w", err)}
	}

	return &queue.InboundMessage{
		ID:            env.ID,
		Body:          env.Body,
		ReceiptHandle: res,
	}, nil
}

// Delete removes a received message from the processing list.
func (q *RedisActions) Delete(ctx context.Context, receiptHandle string) error {
	n, err := q.Client.LRem(ctx, q.processingKey(), 1, receiptHandle).Result()
	if err != nil {
		return &queue.DeleteError{Endpoint: q.Config.Key, ReceiptHandle: receiptHandle, Err: err}
	}
	if n == 0 {
		return &queue.DeleteError{Endpoint: q.Config.Key, ReceiptHandle: receiptHandle, Err: errors.New("receipt handle not found")}
	}
	return nil
}
