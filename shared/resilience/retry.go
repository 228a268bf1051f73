package resilience

import (
	"context"
	"time"
)

// RetryConfig describes how a failed call is retried. Delay is the idle
// time between attempts; when BackoffMultiplier is > 1 the delay grows
// per attempt up to MaxDelay.
type RetryConfig struct {
	MaxAttempts        uint
	Delay              time.Duration
	MaxDelay           time.Duration
	BackoffMultiplier  float64
	UseProviderBackoff bool
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       1,
		Delay:             1 * time.Second,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 1,
	}
}

// DelayForAttempt returns the idle time before the given zero-based
// retry attempt.
func (c *RetryConfig) DelayForAttempt(attempt uint) time.Duration {
	delay := c.Delay
	if c.BackoffMultiplier > 1 {
		for range attempt {
			delay = time.Duration(float64(delay) * c.BackoffMultiplier)
			if delay >= c.MaxDelay {
				return c.MaxDelay
			}
		}
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// RetryHook observes the retry lifecycle of a single call. Hooks are
// notification-only and must not block.
type RetryHook interface {
	OnRetryAttempt(ctx context.Context, attempt uint, err error, nextDelay time.Duration)
	OnRetrySuccess(ctx context.Context, attempts uint, totalDuration time.Duration)
	OnRetryFailure(ctx context.Context, err error, attempts uint, totalDuration time.Duration)
}

// NoopRetryHook can be embedded when only some callbacks are of interest.
type NoopRetryHook struct{}

func (NoopRetryHook) OnRetryAttempt(context.Context, uint, error, time.Duration) {}
func (NoopRetryHook) OnRetrySuccess(context.Context, uint, time.Duration)        {}
func (NoopRetryHook) OnRetryFailure(context.Context, error, uint, time.Duration) {}
