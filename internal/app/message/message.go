package message

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"aws-sqs-fifo-worker/internal/pkg/logger"
	"aws-sqs-fifo-worker/internal/pkg/queue"
)

// Payload is the synthetic body the producer sends.
type Payload struct {
	Test  string `json:"Test" validate:"required"`
	Test2 int    `json:"Test2"`
}

// NewPayload builds a payload with random content.
func NewPayload() Payload {
	return Payload{
		Test:  "Test string" + strconv.Itoa(rand.IntN(1<<31)),
		Test2: rand.IntN(1 << 31),
	}
}

// Handler processes one received message. A nil return lets the consumer
// delete the message.
type Handler interface {
	Process(ctx context.Context, msg queue.InboundMessage) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg queue.InboundMessage) error

func (f HandlerFunc) Process(ctx context.Context, msg queue.InboundMessage) error {
	return f(ctx, msg)
}

// PrintHandler decodes and validates the payload and prints its Test field.
type PrintHandler struct {
	Out       io.Writer
	Validator *validator.Validate
}

func NewPrintHandler(out io.Writer) *PrintHandler {
	return &PrintHandler{Out: out, Validator: validator.New()}
}

func (h *PrintHandler) Process(ctx context.Context, msg queue.InboundMessage) error {
	var p Payload
	if err := json.Unmarshal([]byte(msg.Body), &p); err != nil {
		return fmt.Errorf("invalid payload in message %s: %w", msg.ID, err)
	}
	if err := h.Validator.Struct(p); err != nil {
		return fmt.Errorf("payload validation failed for message %s: %w", msg.ID, err)
	}

	logger.InfoCtx(ctx, "processing message", zap.String("messageId", msg.ID), zap.String("test", p.Test))
	_, err := fmt.Fprintf(h.Out, "Processing message %s: %s\n", msg.ID, p.Test)
	return err
}
