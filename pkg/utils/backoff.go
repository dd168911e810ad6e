package utils

import (
	"context"
	"math"
	"time"
)

// Backoff kinds accepted in configuration
const (
	BackoffConstant    = "constant"
	BackoffLinear      = "linear"
	BackoffExponential = "exponential"
)

// BackoffStrategy yields the wait before a retry
type BackoffStrategy interface {
	// NextDelay returns the delay before retry number attempt (1-indexed)
	NextDelay(attempt int) time.Duration
}

// ConstantBackoff waits the same delay before every retry
type ConstantBackoff struct {
	Delay time.Duration
}

func (b ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return b.Delay
}

// LinearBackoff waits BaseDelay*attempt, capped at MaxDelay
type LinearBackoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (b LinearBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return capDelay(b.BaseDelay*time.Duration(attempt), b.MaxDelay)
}

// ExponentialBackoff waits BaseDelay*2^(attempt-1), capped at MaxDelay
type ExponentialBackoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (b ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(b.BaseDelay) * math.Pow(2, float64(attempt-1))
	if b.MaxDelay > 0 && delay > float64(b.MaxDelay) {
		return b.MaxDelay
	}
	return time.Duration(delay)
}

func capDelay(d, max time.Duration) time.Duration {
	if max > 0 && d > max {
		return max
	}
	return d
}

// BackoffFromConfig builds a strategy from its config name. Unknown names
// fall back to exponential. maxMs <= 0 caps delays at one minute.
func BackoffFromConfig(kind string, baseMs, maxMs int) BackoffStrategy {
	base := time.Duration(baseMs) * time.Millisecond
	max := time.Duration(maxMs) * time.Millisecond
	if max <= 0 {
		max = time.Minute
	}

	switch kind {
	case BackoffConstant:
		return ConstantBackoff{Delay: base}
	case BackoffLinear:
		return LinearBackoff{BaseDelay: base, MaxDelay: max}
	default:
		return ExponentialBackoff{BaseDelay: base, MaxDelay: max}
	}
}

// Sleep waits for d or until ctx is done, whichever comes first
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
