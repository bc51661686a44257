package replay

import (
	"context"
	"math/rand"
	"time"
)

// maxRetryDelay bounds the exponential backoff so a long outage does not
// stretch the gap between storage attempts past a few seconds.
const maxRetryDelay = 10 * time.Second

// withRetry runs fn up to maxRetries+1 times with exponential backoff.
// Each wait keeps half the backoff fixed and draws the other half at
// random, so concurrent writers hitting the same outage spread out.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		wait := delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}
