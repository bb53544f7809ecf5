// Package retry provides a small reusable retry policy: bounded attempts,
// exponential backoff, and a retryable-error predicate. One policy instance
// is shared by every call site that wants retries instead of duplicating
// backoff loops.
package retry

import (
	"context"
	"time"
)

// Schedule maps a zero-based failed-attempt index to the delay before the
// next attempt.
type Schedule func(attempt int) time.Duration

// Exponential doubles the base delay per failed attempt: base, 2*base,
// 4*base, ...
func Exponential(base time.Duration) Schedule {
	return func(attempt int) time.Duration {
		return base << attempt
	}
}

// Policy drives retries of a fallible operation.
type Policy struct {
	MaxAttempts int
	Backoff     Schedule
	// Retryable reports whether an error is worth another attempt. A nil
	// predicate retries everything.
	Retryable func(error) bool
	// Sleep is swappable for tests; the default honors context
	// cancellation during backoff.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs op up to MaxAttempts times, sleeping per the backoff schedule
// between failures. Non-retryable errors and context cancellation abort
// immediately; otherwise the last error is returned.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt < p.MaxAttempts-1 {
			if err := sleep(ctx, p.Backoff(attempt)); err != nil {
				return err
			}
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
