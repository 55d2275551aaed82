package crawl

import (
	"context"
	"time"
)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// BackoffDelays returns n exponential delays starting at base.
func BackoffDelays(n int, base time.Duration) []time.Duration {
	delays := make([]time.Duration, 0, max(n, 0))
	d := base
	for range n {
		delays = append(delays, d)
		d *= 2
	}
	return delays
}

// Retry calls fn until it succeeds, making one attempt plus one retry per
// entry in delays and waiting the matching delay before each retry. A nil
// delays slice means a single attempt. The label identifies the operation
// in log lines; logger may be nil.
func Retry[T any](ctx context.Context, label string, delays []time.Duration, logger LogFunc, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if logger != nil {
			logger("  retry %s (attempt %d): %v", label, attempt+2, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return zero, lastErr
}
