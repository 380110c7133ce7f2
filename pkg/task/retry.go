package task

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/wisbric/meshdrift/internal/apperr"
)

// RetryPolicy parameterizes the exponential backoff wrapped around every
// task body, per spec §7's propagation policy: Unavailable and Timeout
// errors retry, everything else is terminal for that delivery.
type RetryPolicy struct {
	BaseDelay   time.Duration
	Exponent    float64
	MaxAttempts uint
}

// DefaultRetryPolicy matches the config default: 15s base delay, doubling,
// three attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{BaseDelay: 15 * time.Second, Exponent: 2.0, MaxAttempts: 3}
}

// WithRetry wraps handler so a failure classified Unavailable or Timeout is
// retried up to policy.MaxAttempts times with exponential backoff; any
// other error (including apperr.Exhausted once retries are consumed) is
// returned immediately as permanent.
func WithRetry(policy RetryPolicy, handler Handler) Handler {
	return func(ctx context.Context, payload []byte) error {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = policy.BaseDelay
		b.Multiplier = policy.Exponent

		var permanent bool
		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			err := handler(ctx, payload)
			if err == nil {
				return struct{}{}, nil
			}
			if apperr.Retryable(err) {
				return struct{}{}, err
			}
			permanent = true
			return struct{}{}, backoff.Permanent(err)
		}, backoff.WithBackOff(b), backoff.WithMaxTries(policy.MaxAttempts))

		if err == nil {
			return nil
		}
		if permanent {
			return err
		}
		return apperr.Wrap(apperr.Exhausted, "task retries exhausted", err)
	}
}
