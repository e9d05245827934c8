package generate

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds a flaky external call: per-attempt timeout, total
// attempt cap and a fixed backoff between attempts. Unbounded retry on a
// model call is a design error; every call site shares this combinator.
type RetryPolicy struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	Backoff        time.Duration
}

// DefaultModelRetry is the policy applied to outline/content/repair calls.
var DefaultModelRetry = RetryPolicy{
	MaxAttempts:    3,
	AttemptTimeout: 60 * time.Second,
	Backoff:        2 * time.Second,
}

// DefaultImageRetry allows a single retry per image.
var DefaultImageRetry = RetryPolicy{
	MaxAttempts:    2,
	AttemptTimeout: 2 * time.Minute,
	Backoff:        2 * time.Second,
}

// retryDo runs fn up to policy.MaxAttempts times. fn receives the current
// attempt (0-based) so callers can issue corrective follow-up prompts.
// retryable decides which errors are worth another attempt; a nil
// retryable retries everything except context cancellation.
func retryDo[T any](ctx context.Context, policy RetryPolicy, retryable func(error) bool, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && policy.Backoff > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(policy.Backoff):
			}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if policy.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
		}
		out, err := fn(attemptCtx, attempt)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if retryable != nil && !retryable(err) {
			return zero, err
		}
		if retryable == nil && errors.Is(err, context.Canceled) {
			return zero, err
		}
	}
	return zero, lastErr
}
