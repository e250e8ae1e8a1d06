package gasbuddy

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryPolicy wraps an operation in exponential backoff, bounded by both an
// attempt count and a wall-clock budget. Only errors accepted by the
// retryable predicate are retried; everything else fails immediately.
type retryPolicy struct {
	maxAttempts uint64
	maxElapsed  time.Duration
	initial     time.Duration
	retryable   func(error) bool
}

func defaultRequestRetry() retryPolicy {
	return retryPolicy{
		maxAttempts: 5,
		maxElapsed:  time.Second * 60,
		initial:     time.Millisecond * 500,
		retryable:   isTransient,
	}
}

func defaultAcquireRetry() retryPolicy {
	// attempt-bounded only, like the request side's transport retries but
	// without a wall-clock cap
	return retryPolicy{
		maxAttempts: 5,
		initial:     time.Millisecond * 500,
		retryable:   isTransient,
	}
}

func (p retryPolicy) run(ctx context.Context, op func() error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.initial
	expo.MaxElapsedTime = p.maxElapsed

	var policy backoff.BackOff = backoff.WithMaxRetries(expo, p.maxAttempts-1)
	policy = backoff.WithContext(policy, ctx)

	return backoff.Retry(func() error {
		err := op()
		if err != nil && !p.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}
