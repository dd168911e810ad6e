package policy

import (
	"context"
	"errors"
	"time"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/config"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/utils"
)

// RetryPolicy decides whether a failed invocation is attempted again and
// how long to wait first.
type RetryPolicy struct {
	maxRetries int
	backoff    utils.BackoffStrategy
}

// NewRetryPolicyFromConfig creates a retry policy from the invoker config
func NewRetryPolicyFromConfig(cfg *config.Invoker) *RetryPolicy {
	return NewRetryPolicy(cfg.Retries, cfg.Backoff, cfg.BaseMs)
}

// NewRetryPolicy creates a retry policy with explicit parameters
func NewRetryPolicy(maxRetries int, backoff string, baseMs int) *RetryPolicy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryPolicy{
		maxRetries: maxRetries,
		backoff:    utils.BackoffFromConfig(backoff, baseMs, 0),
	}
}

// MaxRetries returns the number of retries after the first attempt
func (p *RetryPolicy) MaxRetries() int {
	return p.maxRetries
}

// ShouldRetry reports whether attempt (0-indexed) may be followed by another.
// Cancellation is never retried.
func (p *RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if err == nil || attempt >= p.maxRetries {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

// BackoffDuration returns the wait before retry number attempt (1-indexed)
func (p *RetryPolicy) BackoffDuration(attempt int) time.Duration {
	return p.backoff.NextDelay(attempt)
}

// Do calls fn until it succeeds or the policy gives up, and returns the last
// error.
func (p *RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(attempt)
		if !p.ShouldRetry(attempt, err) {
			return err
		}
		if serr := utils.Sleep(ctx, p.BackoffDuration(attempt+1)); serr != nil {
			return err
		}
	}
}
