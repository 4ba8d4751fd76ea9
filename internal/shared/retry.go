package shared

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

const (
	DefaultRetryDelay    = 1 * time.Second
	DefaultMaxRetryDelay = 30 * time.Second
)

// RetryPolicy caps how often a resolve or fetch is attempted. The zero value
// performs exactly one attempt.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Debug        bool
}

// NewRetryPolicy returns a policy with the default delays.
func NewRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:   maxRetries,
		InitialDelay: DefaultRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// Retry runs fn once, then up to p.MaxRetries more times while the error is
// retryable, with exponential backoff and ±25% jitter between attempts.
func Retry(ctx context.Context, p RetryPolicy, fn func() error) error {
	if p.MaxRetries <= 0 {
		return fn()
	}

	var lastErr error
	attempts := p.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		delay := backoffDelay(p, attempt)
		DebugPrint(p.Debug, "request failed (attempt %d/%d): %v. Retrying in %v", attempt+1, attempts, lastErr, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func backoffDelay(p RetryPolicy, attempt int) time.Duration {
	delay := p.InitialDelay * time.Duration(1<<uint(attempt))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if delay < 4 {
		return delay
	}

	// ±25% of delay
	jitter := time.Duration(rand.Int63n(int64(delay/2))) - delay/4
	if final := delay + jitter; final > 0 {
		return final
	}
	return delay
}
