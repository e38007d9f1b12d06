package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrHaila/kantama/pkg/core"
)

var (
	testFrom = core.Zone{ID: "00100", GroupKey: "helsinki", Name: "Kaartinkaupunki", Lat: 60.166, Lon: 24.952}
	testTo   = core.Zone{ID: "00530", GroupKey: "helsinki", Name: "Kallio", Lat: 60.184, Lon: 24.949}
)

// fastRetry keeps rate-limit tests quick.
func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
		JitterFraction:    0,
	}
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := NewClient(Config{Endpoint: endpoint, Local: true, Retry: fastRetry(3)})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresKeyForRemote(t *testing.T) {
	_, err := NewClient(Config{Endpoint: "https://api.example.test/plan"})
	assert.ErrorIs(t, err, core.ErrMissingAPIKey)

	_, err = NewClient(Config{Endpoint: "http://localhost:8080/plan", Local: true})
	assert.NoError(t, err)
}

func TestPlan_PicksShortestItinerary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"plan":{"itineraries":[
			{"duration":2400,"walkDistance":410.5,"numberOfTransfers":1,"legs":[
				{"mode":"WALK","duration":300,"distance":410.5,"from":{"name":"Origin"},"to":{"name":"Stop A"}},
				{"mode":"BUS","duration":2100,"distance":9200,"from":{"name":"Stop A"},"to":{"name":"Destination"}}]},
			{"duration":1800,"walkDistance":520,"numberOfTransfers":0,"legs":[
				{"mode":"SUBWAY","duration":1800,"distance":8800,"from":{"name":"Origin"},"to":{"name":"Destination"}}]}
		]}}}`))
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv.URL).Plan(context.Background(), testFrom, testTo, core.ModeTransit, "2026-09-02", "08:30")
	require.NoError(t, err)

	assert.Equal(t, core.StatusOK, result.Status)
	assert.Equal(t, 1800, result.Duration)
	assert.Equal(t, 0, result.Transfers)
	assert.Equal(t, 520.0, result.WalkDistance)
	require.Len(t, result.Legs, 1)
	assert.Equal(t, "SUBWAY", result.Legs[0].Mode)
}

func TestPlan_EmptyItinerariesIsNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"plan":{"itineraries":[]}}}`))
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv.URL).Plan(context.Background(), testFrom, testTo, core.ModeTransit, "2026-09-02", "08:30")
	require.NoError(t, err)

	assert.Equal(t, core.StatusNoRoute, result.Status)
	assert.Empty(t, result.Diagnostic)
}

func TestPlan_ServerErrorClassifiesAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv.URL).Plan(context.Background(), testFrom, testTo, core.ModeTransit, "2026-09-02", "08:30")
	require.NoError(t, err)

	assert.Equal(t, core.StatusError, result.Status)
	assert.Contains(t, result.Diagnostic, "503")
}

func TestPlan_GraphQLErrorClassifiesAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"Validation error of type FieldUndefined"}]}`))
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv.URL).Plan(context.Background(), testFrom, testTo, core.ModeTransit, "2026-09-02", "08:30")
	require.NoError(t, err)

	assert.Equal(t, core.StatusError, result.Status)
	assert.Contains(t, result.Diagnostic, "FieldUndefined")
}

func TestPlan_UnreachableEndpointClassifiesAsError(t *testing.T) {
	c, err := NewClient(Config{Endpoint: "http://127.0.0.1:1/plan", Local: true, Retry: fastRetry(2)})
	require.NoError(t, err)

	result, err := c.Plan(context.Background(), testFrom, testTo, core.ModeTransit, "2026-09-02", "08:30")
	require.NoError(t, err)

	assert.Equal(t, core.StatusError, result.Status)
	assert.NotEmpty(t, result.Diagnostic)
}

func TestPlan_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data":{"plan":{"itineraries":[{"duration":900,"walkDistance":100,"numberOfTransfers":0,"legs":[]}]}}}`))
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv.URL).Plan(context.Background(), testFrom, testTo, core.ModeTransit, "2026-09-02", "08:30")
	require.NoError(t, err)

	assert.Equal(t, core.StatusOK, result.Status)
	assert.Equal(t, 900, result.Duration)
	assert.Equal(t, int64(3), calls.Load())
}

func TestPlan_RateLimitCapSurfacesTypedError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Plan(context.Background(), testFrom, testTo, core.ModeTransit, "2026-09-02", "08:30")
	require.Error(t, err)

	var rateErr *core.RateLimitExceededError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 3, rateErr.Attempts)
	assert.Equal(t, int64(3), calls.Load())
}

func TestPlan_SendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(apiKeyHeader)
		w.Write([]byte(`{"data":{"plan":{"itineraries":[]}}}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{Endpoint: srv.URL, APIKey: "secret-key", Retry: fastRetry(2)})
	require.NoError(t, err)

	_, err = c.Plan(context.Background(), testFrom, testTo, core.ModeTransit, "2026-09-02", "08:30")
	require.NoError(t, err)
	assert.Equal(t, "secret-key", gotKey)
}

func TestPlan_CancelledContextReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"plan":{"itineraries":[]}}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, srv.URL).Plan(ctx, testFrom, testTo, core.ModeTransit, "2026-09-02", "08:30")
	assert.ErrorIs(t, err, context.Canceled)
}
