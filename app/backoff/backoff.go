package backoff

import (
	"context"
	"fmt"
	"time"
)

// DefaultBase is the delay before the second attempt. Each subsequent
// attempt doubles it (1s, 2s, 4s with the default).
const DefaultBase = time.Second

// Retry calls fn up to maxAttempts times in total, doubling the delay
// between attempts starting from base. fn receives the zero-indexed
// attempt number. Cancellation of ctx cuts the wait short and returns
// the context error.
func Retry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if base <= 0 {
		base = DefaultBase
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts-1 {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := base * time.Duration(1<<attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}
