package core

import (
	"errors"
	"fmt"
)

// Precondition and guard errors
var (
	ErrNoData          = errors.New("kantama: no successful route durations to aggregate")
	ErrAlreadyComputed = errors.New("kantama: read-model already computed (use force to recompute)")
	ErrMissingAPIKey   = errors.New("kantama: routing api key required for remote endpoint")
	ErrNoZones         = errors.New("kantama: zone set is empty")
	ErrSelfPair        = errors.New("kantama: origin and destination must differ")
	ErrTooFewSamples   = errors.New("kantama: fewer than ten duration samples for decile split")
)

// RateLimitExceededError indicates the routing service kept rate-limiting a
// query past the configured retry cap. It is surfaced as a distinct kind so
// one persistently throttled task cannot silently stall a run.
type RateLimitExceededError struct {
	Attempts int
	Err      error
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("kantama: rate limit still in effect after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RateLimitExceededError) Unwrap() error {
	return e.Err
}

// RateLimitExceeded wraps an error once the rate-limit retry cap is hit.
func RateLimitExceeded(attempts int, err error) error {
	return &RateLimitExceededError{Attempts: attempts, Err: err}
}
