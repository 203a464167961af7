package queue

import "context"

// OutboundMessage is a message submitted to a FIFO queue.
type OutboundMessage struct {
	Body    string // Serialized payload
	GroupID string // Ordering is only guaranteed within one group
	// DeduplicationID suppresses repeated sends inside the service's dedup
	// window. Empty means no explicit id.
	DeduplicationID string
}

// InboundMessage is a message handed out by a receive call.
type InboundMessage struct {
	ID   string
	Body string
	// ReceiptHandle acknowledges the message. It expires with the visibility
	// timeout, after which the message becomes visible again.
	ReceiptHandle string
}

// ReceiveOptions controls a single long poll.
type ReceiveOptions struct {
	WaitTimeSeconds          int32 // Server-side long-poll wait
	VisibilityTimeoutSeconds int32 // How long the received message stays hidden
}

// QueueClient is the capability set the producer and consumer loops need
// from a queue backend (SQS, Redis, etc).
//
// Ordering, at-least-once delivery and visibility are provided by the
// backend: messages of one group arrive in send order, a received message is
// hidden until it is deleted or its visibility timeout expires, and an
// undeleted message is delivered again.
type QueueClient interface {
	// Endpoint returns the queue address the client is bound to.
	Endpoint() string
	// Send submits one message. A non-success response yields *SendError.
	Send(ctx context.Context, msg OutboundMessage) error
	// Receive long-polls for at most one message. A nil message with a nil
	// error means the queue was empty for the whole wait.
	Receive(ctx context.Context, opts ReceiveOptions) (*InboundMessage, error)
	// Delete acknowledges a message. A non-success response yields *DeleteError.
	Delete(ctx context.Context, receiptHandle string) error
}
