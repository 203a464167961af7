// Package queuetest provides an in-process queue.QueueClient for loop tests.
package queuetest

import (
	"context"
	"sync"

	"aws-sqs-fifo-worker/internal/pkg/queue"
)

var _ queue.QueueClient = (*Fake)(nil)

// Fake records every call. The func fields override the default behavior,
// which is: sends succeed, receives are empty, deletes succeed.
type Fake struct {
	URL string

	SendFunc    func(ctx context.Context, msg queue.OutboundMessage) error
	ReceiveFunc func(ctx context.Context, opts queue.ReceiveOptions) (*queue.InboundMessage, error)
	DeleteFunc  func(ctx context.Context, receiptHandle string) error

	mu       sync.Mutex
	sent     []queue.OutboundMessage
	receives []queue.ReceiveOptions
	deleted  []string
	events   []string
}

func (f *Fake) Endpoint() string {
	if f.URL == "" {
		return "fake-queue.fifo"
	}
	return f.URL
}

func (f *Fake) Send(ctx context.Context, msg queue.OutboundMessage) error {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.events = append(f.events, "send")
	f.mu.Unlock()
	if f.SendFunc != nil {
		return f.SendFunc(ctx, msg)
	}
	return nil
}

func (f *Fake) Receive(ctx context.Context, opts queue.ReceiveOptions) (*queue.InboundMessage, error) {
	f.mu.Lock()
	f.receives = append(f.receives, opts)
	f.events = append(f.events, "receive")
	f.mu.Unlock()
	if f.ReceiveFunc != nil {
		return f.ReceiveFunc(ctx, opts)
	}
	return nil, nil
}

func (f *Fake) Delete(ctx context.Context, receiptHandle string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, receiptHandle)
	f.events = append(f.events, "delete:"+receiptHandle)
	f.mu.Unlock()
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, receiptHandle)
	}
	return nil
}

// Record appends a caller-defined event, e.g. from a test handler, so the
// relative order of processing and deletes can be asserted.
func (f *Fake) Record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *Fake) Sent() []queue.OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]queue.OutboundMessage(nil), f.sent...)
}

func (f *Fake) Receives() []queue.ReceiveOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]queue.ReceiveOptions(nil), f.receives...)
}

func (f *Fake) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func (f *Fake) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}
