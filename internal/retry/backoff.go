// Package retry provides exponential backoff for operations that fail
// transiently, such as accepting sockets while the process is out of
// file descriptors.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PermanentError wraps an error to signal that retrying will not help.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable; Do returns the inner error
// immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Backoff retries an operation with exponentially growing delays until
// it succeeds, fails permanently or the context ends.
type Backoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64 // values <= 1 mean 2

	// OnRetry, when set, is called after each failed attempt with the
	// delay that will be waited before the next one.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// AcceptBackoff returns the policy used between failed Accept calls:
// short, capped at one second, and never giving up on its own.
func AcceptBackoff() *Backoff {
	return &Backoff{
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}
}

// Do calls fn until it returns nil or a [Permanent] error, or ctx is
// done.  The attempt passed to fn is 1-based.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	delay := b.InitialDelay
	multiplier := b.Multiplier
	if multiplier <= 1 {
		multiplier = 2.0
	}

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}

		if b.OnRetry != nil {
			b.OnRetry(attempt, err, delay)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * multiplier)
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
}
