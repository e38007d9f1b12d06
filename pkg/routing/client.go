package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrHaila/kantama/pkg/core"
)

// apiKeyHeader carries the subscription key on every remote query.
const apiKeyHeader = "digitransit-subscription-key"

// planQuery is the GraphQL document sent for every task. One query per
// (origin, destination, period, mode) tuple; batching is not supported by
// the upstream plan API.
const planQuery = `query Plan($fromLat: Float!, $fromLon: Float!, $toLat: Float!, $toLon: Float!, $date: String!, $time: String!, $modes: String!, $numItineraries: Int!) {
  plan(from: {lat: $fromLat, lon: $fromLon}, to: {lat: $toLat, lon: $toLon}, date: $date, time: $time, transportModes: [{mode: $modes}], numItineraries: $numItineraries) {
    itineraries {
      duration
      walkDistance
      numberOfTransfers
      legs {
        mode
        duration
        distance
        from { name }
        to { name }
      }
    }
  }
}`

// Config holds the routing client configuration. All knobs are explicit;
// the client never reads the process environment.
type Config struct {
	// Endpoint is the GraphQL plan endpoint URL.
	Endpoint string

	// APIKey authenticates against the hosted service. Required unless
	// Local is set.
	APIKey string

	// Local marks a self-hosted endpoint: no API key, no pacing needed.
	Local bool

	// MaxItineraries caps the alternatives requested per query.
	// Default: 3
	MaxItineraries int

	// Timeout bounds a single HTTP round trip.
	// Default: 30s
	Timeout time.Duration

	// RequestsPerSecond paces outgoing queries. Zero means unpaced,
	// which is only appropriate for local endpoints.
	RequestsPerSecond float64

	// Retry governs backoff when the service rate-limits us.
	Retry RetryConfig
}

// PlanResult is the classified outcome of one plan query. Duration,
// Transfers, WalkDistance and Legs are meaningful iff Status is
// core.StatusOK; Diagnostic is set iff Status is core.StatusError.
type PlanResult struct {
	Status       core.RouteStatus
	Duration     int
	Transfers    int
	WalkDistance float64
	Legs         []core.Leg
	Diagnostic   string
}

// Client issues plan queries against a journey-planning endpoint and
// classifies each response. It is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient validates the configuration and returns a ready client.
// A remote endpoint without an API key is rejected up front so a run
// cannot start and then fail on its first query.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if !cfg.Local && cfg.APIKey == "" {
		return nil, core.ErrMissingAPIKey
	}
	if cfg.MaxItineraries <= 0 {
		cfg.MaxItineraries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Plan issues one routing query for the given zones at the given service
// date and clock time, retrying while the upstream rate-limits us.
//
// Transport failures and malformed responses classify as StatusError
// rather than returning an error: a broken query is a recorded outcome,
// not a run-stopper. The error return is reserved for context
// cancellation and for core.RateLimitExceededError once the retry cap
// is hit.
func (c *Client) Plan(ctx context.Context, from, to core.Zone, mode core.TravelMode, date, clock string) (*PlanResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return retryRateLimited(ctx, c.cfg.Retry, func() (*PlanResult, error) {
		return c.planOnce(ctx, from, to, mode, date, clock)
	})
}

type planResponse struct {
	Data struct {
		Plan *struct {
			Itineraries []itinerary `json:"itineraries"`
		} `json:"plan"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type itinerary struct {
	Duration          float64 `json:"duration"`
	WalkDistance      float64 `json:"walkDistance"`
	NumberOfTransfers int     `json:"numberOfTransfers"`
	Legs              []struct {
		Mode     string  `json:"mode"`
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
		From     struct {
			Name string `json:"name"`
		} `json:"from"`
		To struct {
			Name string `json:"name"`
		} `json:"to"`
	} `json:"legs"`
}

func (c *Client) planOnce(ctx context.Context, from, to core.Zone, mode core.TravelMode, date, clock string) (*PlanResult, error) {
	body, err := json.Marshal(map[string]any{
		"query": planQuery,
		"variables": map[string]any{
			"fromLat":        from.Lat,
			"fromLon":        from.Lon,
			"toLat":          to.Lat,
			"toLon":          to.Lon,
			"date":           date,
			"time":           clock,
			"modes":          string(mode),
			"numItineraries": c.cfg.MaxItineraries,
		},
	})
	if err != nil {
		return errorResult(fmt.Sprintf("encode plan query: %v", err)), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errorResult(fmt.Sprintf("build plan request: %v", err)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return errorResult(fmt.Sprintf("plan request failed: %v", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn("routing service rate-limited query",
			"from", from.ID,
			"to", to.ID)
		return nil, errRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return errorResult(fmt.Sprintf("routing service returned %d", resp.StatusCode)), nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return errorResult(fmt.Sprintf("read plan response: %v", err)), nil
	}

	var parsed planResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return errorResult(fmt.Sprintf("decode plan response: %v", err)), nil
	}
	if len(parsed.Errors) > 0 {
		return errorResult("plan query rejected: " + parsed.Errors[0].Message), nil
	}
	if parsed.Data.Plan == nil {
		return errorResult("plan response missing plan payload"), nil
	}

	return classify(parsed.Data.Plan.Itineraries), nil
}

// classify turns a plan payload into the final outcome. An empty itinerary
// list is a definitive no-route answer, not an error. Among alternatives
// the shortest total duration wins; ties keep the first returned.
func classify(itineraries []itinerary) *PlanResult {
	if len(itineraries) == 0 {
		return &PlanResult{Status: core.StatusNoRoute}
	}

	best := itineraries[0]
	for _, it := range itineraries[1:] {
		if it.Duration < best.Duration {
			best = it
		}
	}

	legs := make([]core.Leg, 0, len(best.Legs))
	for _, l := range best.Legs {
		legs = append(legs, core.Leg{
			Mode:     l.Mode,
			Duration: int(l.Duration),
			Distance: l.Distance,
			From:     l.From.Name,
			To:       l.To.Name,
		})
	}

	return &PlanResult{
		Status:       core.StatusOK,
		Duration:     int(best.Duration),
		Transfers:    best.NumberOfTransfers,
		WalkDistance: best.WalkDistance,
		Legs:         legs,
	}
}

func errorResult(diagnostic string) *PlanResult {
	return &PlanResult{
		Status:     core.StatusError,
		Diagnostic: core.SanitizeDiagnostic(diagnostic),
	}
}
