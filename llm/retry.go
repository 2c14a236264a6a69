// ABOUTME: Retry logic with exponential backoff and jitter for Completer calls.
// ABOUTME: Retries transient provider errors, honoring Retry-After when the provider supplies one.
package llm

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy configures retry behavior for Completer calls.
type RetryPolicy struct {
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	Jitter            bool
	OnRetry           func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns sane defaults: 2 retries, 1s base, 60s cap, 2x
// backoff, full jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         time.Second,
		MaxDelay:          60 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// CalculateDelay computes the delay for a given retry attempt (0-indexed).
func (p RetryPolicy) CalculateDelay(attempt int) time.Duration {
	delayFloat := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt))
	if delayFloat > float64(p.MaxDelay) {
		delayFloat = float64(p.MaxDelay)
	}
	delay := time.Duration(delayFloat)
	if p.Jitter {
		delay = time.Duration(rand.Int64N(int64(delay) + 1))
	}
	return delay
}

// ShouldRetry reports whether attempt should be retried given err.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.MaxRetries {
		return false
	}
	type retryable interface{ IsRetryable() bool }
	if r, ok := err.(retryable); ok {
		return r.IsRetryable()
	}
	return false
}

// Retry executes fn with the given policy, honoring RetryAfter hints and
// context cancellation.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !policy.ShouldRetry(lastErr, attempt) {
			return lastErr
		}
		delay := applyRetryAfter(lastErr, policy.CalculateDelay(attempt))
		if policy.OnRetry != nil {
			policy.OnRetry(lastErr, attempt, delay)
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}
}

func applyRetryAfter(err error, calculated time.Duration) time.Duration {
	if pe, ok := extractProviderError(err); ok && pe.RetryAfter != nil {
		hinted := time.Duration(*pe.RetryAfter * float64(time.Second))
		if hinted > calculated {
			return hinted
		}
	}
	return calculated
}
