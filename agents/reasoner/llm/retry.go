// ABOUTME: RetryPolicy and Retry implement exponential backoff with jitter over a provider call.
package llm

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy configures backoff around a provider call.
type RetryPolicy struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	Jitter            bool
}

// DefaultRetryPolicy mirrors a conservative default: 2 retries, 1s base,
// 30s cap, 2x backoff, full jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	delay := time.Duration(d)
	if p.Jitter && delay > 0 {
		delay = time.Duration(rand.Int64N(int64(delay) + 1))
	}
	return delay
}

func (p RetryPolicy) shouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.MaxRetries {
		return false
	}
	re, ok := err.(*RequestError)
	return ok && re.Retryable()
}

// Retry runs fn, retrying on a RequestError whose Kind is retryable, up to
// MaxRetries times with exponential backoff. A RateLimited error's
// RetryAfterSeconds, when set, floors the computed delay.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !policy.shouldRetry(lastErr, attempt) {
			return lastErr
		}
		d := policy.delay(attempt)
		if re, ok := lastErr.(*RequestError); ok && re.RetryAfterSeconds > 0 {
			if floor := time.Duration(re.RetryAfterSeconds * float64(time.Second)); floor > d {
				d = floor
			}
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(d):
		}
	}
}
