package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as transient. [Policy.Do] retries only
// errors that wrap one.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is marked as transient.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Policy bounds how often and how fast a remote operation is retried.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	// Delay is the wait after the first failure. It doubles after each
	// further failure, up to MaxDelay when that is set.
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultPolicy makes three attempts, waiting one and then two seconds.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Delay: time.Second, MaxDelay: 8 * time.Second}
}

// Do calls fn until it succeeds, fails permanently or the attempts are used
// up. The last error is returned; ctx.Err() if ctx ends while waiting.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	wait := p.Delay

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if werr := sleep(ctx, wait); werr != nil {
				return werr
			}
			wait = p.next(wait)
		}
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}

func (p Policy) next(d time.Duration) time.Duration {
	d *= 2
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
