package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var ErrEmptyEndpoint = errors.New("queue endpoint must not be empty")

// SendError reports a failed or non-success send.
type SendError struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *SendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("send to %s failed with status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("send to %s failed: %v", e.Endpoint, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// ReceiveError reports a transport or service failure during a long poll.
type ReceiveError struct {
	Endpoint string
	Err      error
}

func (e *ReceiveError) Error() string {
	return fmt.Sprintf("receive from %s failed: %v", e.Endpoint, e.Err)
}

func (e *ReceiveError) Unwrap() error { return e.Err }

// DeleteError reports a failed or non-success delete, including an expired
// receipt handle.
type DeleteError struct {
	Endpoint      string
	ReceiptHandle string
	StatusCode    int
	Err           error
}

func (e *DeleteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("(%s) delete from %s failed with status %d: %v", e.ReceiptHandle, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("(%s) delete from %s failed: %v", e.ReceiptHandle, e.Endpoint, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// terminalCodes are service error codes that retrying cannot fix.
var terminalCodes = map[string]struct{}{
	"AccessDenied":                                {},
	"AccessDeniedException":                       {},
	"InvalidClientTokenId":                        {},
	"UnrecognizedClientException":                 {},
	"SignatureDoesNotMatch":                       {},
	"MissingAuthenticationToken":                  {},
	"IncompleteSignature":                         {},
	"InvalidAddress":                              {},
	"InvalidSecurity":                             {},
	"QueueDoesNotExist":                           {},
	"AWS.SimpleQueueService.NonExistentQueue":     {},
	"AWS.SimpleQueueService.UnsupportedOperation": {},
}

// IsTerminal reports whether err should abort a loop instead of being
// retried: auth and configuration failures, and caller cancellation.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyEndpoint) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		_, ok := terminalCodes[apiErr.ErrorCode()]
		return ok
	}
	return false
}
