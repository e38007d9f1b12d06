package reach

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrHaila/kantama/pkg/core"
	"github.com/MrHaila/kantama/pkg/progress"
)

// Scorer computes and persists reachability scores from the record store.
type Scorer struct {
	store   core.Store
	emitter *progress.Emitter
	logger  *slog.Logger
}

// Option customizes a Scorer.
type Option func(*Scorer)

// WithEmitter attaches a progress event emitter.
func WithEmitter(e *progress.Emitter) Option {
	return func(s *Scorer) { s.emitter = e }
}

// WithLogger sets the scorer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scorer.
func New(store core.Store, opts ...Option) *Scorer {
	s := &Scorer{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeAndStore scores every ingested zone for one period and persists
// the ranked result. An existing score set for the period is a guard;
// pass force to recompute it. Scoring before any route has classified
// successfully is core.ErrNoData.
func (s *Scorer) ComputeAndStore(ctx context.Context, period core.Period, mode core.TravelMode, force bool) ([]core.ReachabilityScore, error) {
	existing, err := s.store.GetScores(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("load existing scores: %w", err)
	}
	if len(existing) > 0 {
		if !force {
			return nil, core.ErrAlreadyComputed
		}
		if _, err := s.store.DeleteScores(ctx, period); err != nil {
			return nil, fmt.Errorf("delete stale scores: %w", err)
		}
	}

	zones, err := s.store.ListZones(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	if len(zones) == 0 {
		return nil, core.ErrNoZones
	}

	byOrigin, err := s.store.RoutesByOrigin(ctx, period, mode)
	if err != nil {
		return nil, fmt.Errorf("load routes by origin: %w", err)
	}
	if !hasSuccessfulRoute(byOrigin) {
		return nil, core.ErrNoData
	}

	s.emitter.Emit(&core.StageStarted{
		Stage:     "reachability",
		Total:     len(zones),
		Message:   fmt.Sprintf("scoring %d zones for %s", len(zones), period),
		Timestamp: time.Now(),
	})

	scores := Compute(zones, byOrigin, period)
	if err := s.store.SaveScores(ctx, scores); err != nil {
		return nil, fmt.Errorf("save scores: %w", err)
	}

	s.logger.Info("reachability scores computed", "period", period, "zones", len(scores))
	s.emitter.Emit(&core.StageCompleted{
		Stage:     "reachability",
		Message:   fmt.Sprintf("%d zones ranked for %s", len(scores), period),
		Timestamp: time.Now(),
	})
	return scores, nil
}

func hasSuccessfulRoute(byOrigin map[string][]core.RouteRecord) bool {
	for _, records := range byOrigin {
		for _, rec := range records {
			if rec.Status == core.StatusOK {
				return true
			}
		}
	}
	return false
}
