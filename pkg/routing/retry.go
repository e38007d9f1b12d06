package routing

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/MrHaila/kantama/pkg/core"
)

// errRateLimited marks a query the service throttled. It stays internal;
// callers only ever see core.RateLimitExceededError once the cap is hit.
var errRateLimited = errors.New("routing: rate limited by upstream")

// RetryConfig holds configuration for rate-limit retry with backoff.
//
// The upstream behavior this replaces retried throttled queries forever at
// a fixed delay; the cap here is deliberate so one persistently throttled
// task cannot stall a run.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial).
	// Default: 8
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	// Default: 500ms
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	// Default: 30s
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier applied to backoff after each attempt.
	// Default: 2.0
	BackoffMultiplier float64

	// JitterFraction is the fraction of backoff to randomize (0.0 to 1.0).
	// Default: 0.1 (10% jitter)
	JitterFraction float64
}

// DefaultRetryConfig returns the default rate-limit retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       8,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
	}
}

// retryRateLimited executes the operation, backing off and retrying while
// it reports errRateLimited. It respects context cancellation and returns
// a core.RateLimitExceededError once attempts are exhausted.
func retryRateLimited[T any](ctx context.Context, config RetryConfig, operation func() (T, error)) (T, error) {
	var zero T
	backoff := config.InitialBackoff

	for attempt := 1; ; attempt++ {
		result, err := operation()
		if err == nil {
			return result, nil
		}

		if !errors.Is(err, errRateLimited) {
			return zero, err
		}

		if attempt >= config.MaxAttempts {
			return zero, core.RateLimitExceeded(attempt, err)
		}

		jitter := time.Duration(float64(backoff) * config.JitterFraction * (rand.Float64()*2 - 1))
		sleepDuration := backoff + jitter
		if sleepDuration < 0 {
			sleepDuration = backoff
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(sleepDuration):
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}
}
