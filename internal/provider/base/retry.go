package base

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	statusRetryAttempts = 3
	statusRetryDelay    = 500 * time.Millisecond
)

// RetryStatusCheck runs op up to three times with a fixed short delay
// between attempts. This is the only retry policy in the system and is
// reserved for status checks: a transient name-resolution or network
// failure while polling is safe to retry, whereas retrying a creation
// call could double-charge.
func RetryStatusCheck(ctx context.Context, op func() error) error {
	policy := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(statusRetryDelay),
		statusRetryAttempts-1,
	)
	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}

// Permanent marks an error as non-retryable inside RetryStatusCheck:
// a provider that answered with a definitive rejection should not be
// polled again.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
