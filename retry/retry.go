package retry

import (
	"context"
	"time"
)

// Attempt describes a failed attempt that is about to be retried.
type Attempt struct {
	// Number is the 1-based number of the attempt that failed.
	Number int
	// RetriesLeft is how many more attempts will be made.
	RetriesLeft int
	// Delay is the wait before the next attempt.
	Delay time.Duration
	Err   error
}

// Config controls the retry behaviour of [Do].
type Config struct {
	// MaxAttempts is the maximum number of times fn is called (including the
	// first attempt). Values ≤ 1 mean no retries.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Subsequent retries use
	// exponential back-off: BaseDelay * 2^attempt.
	BaseDelay time.Duration

	// MaxDelay caps the computed back-off delay. Zero means no cap.
	MaxDelay time.Duration

	// Jitter adds randomness to the delay. A value of 0.2 means ±20 % of
	// the computed delay. Zero disables jitter.
	Jitter float64

	// AttemptTimeout bounds each individual attempt. Zero means attempts are
	// bounded only by the parent context.
	AttemptTimeout time.Duration

	// Retryable decides whether an error is worth another attempt. Nil
	// retries every error.
	Retryable func(error) bool

	// OnFailedAttempt is called for every failed attempt that will be
	// retried. It is not called for the final failure.
	OnFailedAttempt func(Attempt)
}

// DefaultConfig makes five attempts (four retries) starting one second
// apart and doubling.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    16 * time.Second,
	}
}

// Do calls fn up to cfg.MaxAttempts times, retrying while cfg.Retryable
// accepts the returned error. Between attempts an exponential back-off delay
// (with optional jitter) is applied.
//
// The final error is returned unchanged. If ctx is done while waiting
// between attempts the function returns the context error.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxAttempts, 1)

	for i := range attempts {
		result, err := attempt(ctx, cfg.AttemptTimeout, fn)
		if err == nil {
			return result, nil
		}

		// Last attempt, return regardless of error.
		if i == attempts-1 {
			return zero, err
		}
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return zero, err
		}
		// A cancelled parent makes further attempts pointless.
		if ctx.Err() != nil {
			return zero, err
		}

		delay := backoff(cfg, i)
		if cfg.OnFailedAttempt != nil {
			cfg.OnFailedAttempt(Attempt{Number: i + 1, RetriesLeft: attempts - i - 1, Delay: delay, Err: err})
		}

		// Wait with back-off, but respect context cancellation.
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	// Unreachable, but keeps the compiler happy.
	return zero, nil
}

func attempt[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}
