package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitExceeded_WrapsAndUnwraps(t *testing.T) {
	inner := errors.New("429 from upstream")
	err := RateLimitExceeded(8, inner)

	var rle *RateLimitExceededError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 8, rle.Attempts)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "8 attempts")
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	assert.NotErrorIs(t, ErrNoData, ErrAlreadyComputed)
	assert.NotErrorIs(t, ErrMissingAPIKey, ErrNoZones)
}
