package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrHaila/kantama/pkg/core"
)

func TestRetryRateLimited_SuccessPassesThrough(t *testing.T) {
	got, err := retryRateLimited(context.Background(), fastRetry(3), func() (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestRetryRateLimited_OtherErrorsDoNotRetry(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := retryRateLimited(context.Background(), fastRetry(5), func() (int, error) {
		calls++
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryRateLimited_ExhaustionWrapsAttempts(t *testing.T) {
	calls := 0
	_, err := retryRateLimited(context.Background(), fastRetry(4), func() (int, error) {
		calls++
		return 0, errRateLimited
	})

	var rateErr *core.RateLimitExceededError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 4, rateErr.Attempts)
	assert.Equal(t, 4, calls)
}

func TestRetryRateLimited_ContextCancelsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := RetryConfig{
		MaxAttempts:       10,
		InitialBackoff:    time.Hour,
		MaxBackoff:        time.Hour,
		BackoffMultiplier: 2.0,
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := retryRateLimited(ctx, config, func() (int, error) {
		return 0, errRateLimited
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
