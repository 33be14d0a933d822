package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultRetryDelay is the wait before the first retry; it doubles per attempt
const DefaultRetryDelay = time.Second

// RetryWithBackoff runs op up to maxRetries+1 times, waiting baseDelay,
// 2*baseDelay, 4*baseDelay... between attempts. Errors wrapped with
// backoff.Permanent stop immediately and are returned unwrapped.
func RetryWithBackoff[T any](ctx context.Context, maxRetries int, baseDelay time.Duration, op func() (T, error)) (T, error) {
	if maxRetries <= 0 {
		value, err := op()
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return value, permanent.Err
		}
		return value, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = baseDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = baseDelay << maxRetries
	policy.MaxElapsedTime = 0
	policy.Reset()

	return backoff.RetryWithData(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(maxRetries)), ctx))
}
