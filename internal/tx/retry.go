package tx

import (
	"context"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Retry runs op up to maxAttempts times, sleeping baseDelay*2^i after the i-th
// failure, and returns the last error once attempts are exhausted. Defaults
// apply when maxAttempts or baseDelay are non-positive.
//
// Only idempotent operations (balance reads, account lookups) belong here.
// Never wrap a fund-moving submission: a retry after an ambiguous failure
// risks double spending.
func Retry[T any](ctx context.Context, op func(ctx context.Context) (T, error), maxAttempts int, baseDelay time.Duration) (T, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}

	var result T
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err = op(ctx)
		if err == nil {
			return result, nil
		}

		if attempt == maxAttempts-1 {
			break
		}

		delay := baseDelay << attempt
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(delay):
		}
	}

	return result, err
}
