package retry

import (
	"context"
	"time"
)

// Backoff yields exponentially growing delays capped at Max.
// It is not safe for concurrent use.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	attempt int
}

// Next returns the delay for the next attempt.
func (b *Backoff) Next() time.Duration {
	delay := b.Initial << b.attempt
	if delay <= 0 || delay > b.Max {
		// shift overflow also lands here
		delay = b.Max
	} else {
		b.attempt++
	}
	return delay
}

// Reset starts the sequence over after a success.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Remaining caps d to what is left until deadline as seen by now.
func Remaining(d time.Duration, deadline, now time.Time) time.Duration {
	if left := deadline.Sub(now); left < d {
		return left
	}
	return d
}

// Wait sleeps for d. It returns ctx.Err() if ctx ends first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
