package rag

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/siteqa"
)

// DefaultRetryDelays returns the backoff delays for upstream retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// RetryFunc is called after a failed attempt, before waiting.
type RetryFunc func(attempt int, delay time.Duration, err error)

// Retry calls fn until it succeeds, fails with an error that is not
// retryable, or every delay has been used (len(delays)+1 attempts). When a
// rate-limited error suggests a longer delay than scheduled, the suggested
// delay is used. Each attempt runs with its own timeout when timeout > 0.
// The error of the last attempt is returned unchanged.
func Retry[T any](ctx context.Context, delays []time.Duration, timeout time.Duration, onRetry RetryFunc, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := attemptWithTimeout(ctx, timeout, fn)
		if err == nil {
			return v, nil
		}
		lastErr = err

		// A caller-side cancellation is final.
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !siteqa.IsRetryable(err) || attempt >= maxAttempts-1 {
			break
		}

		delay := max(delays[attempt], siteqa.ErrorRetryAfter(err))
		if onRetry != nil {
			onRetry(attempt+2, delay, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}

// attemptWithTimeout runs fn with a per-attempt deadline. An attempt that
// exceeds its own deadline is reported as EUNAVAILABLE so it is retried.
func attemptWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := fn(actx)
	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) && siteqa.ErrorCode(err) == siteqa.EINTERNAL {
		var zero T
		return zero, siteqa.Errorf(siteqa.EUNAVAILABLE, "upstream call timed out after %s", timeout)
	}
	return v, err
}
