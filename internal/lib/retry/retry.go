package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy describes how many times an operation is attempted
// and how long to wait between attempts.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Default is the policy used for asset path resolution
// and state persistence.
var Default = Policy{
	MaxAttempts: 3,
	BaseDelay:   200 * time.Millisecond,
}

// Delay returns the wait before the given attempt (1-based).
// The first attempt is never delayed, later ones double the
// base delay each time.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 || p.BaseDelay <= 0 {
		return 0
	}
	return p.BaseDelay << (attempt - 2)
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Do calls fn until it succeeds, the policy is exhausted
// or ctx is cancelled.
//
// On exhaustion the last error is joined with ErrExhausted.
// On cancellation ctx.Err() is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	var last error

	for attempt := 1; attempt <= p.attempts(); attempt++ {
		if d := p.Delay(attempt); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if last = fn(ctx, attempt); last == nil {
			return nil
		}
	}

	return errors.Join(ErrExhausted, last)
}
