package buckets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrHaila/kantama/pkg/core"
	"github.com/MrHaila/kantama/pkg/progress"
)

// Bucketizer computes and persists bucket sets from the record store.
type Bucketizer struct {
	store   core.Store
	emitter *progress.Emitter
	logger  *slog.Logger
}

// Option customizes a Bucketizer.
type Option func(*Bucketizer)

// WithEmitter attaches a progress event emitter.
func WithEmitter(e *progress.Emitter) Option {
	return func(b *Bucketizer) { b.emitter = e }
}

// WithLogger sets the bucketizer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bucketizer) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Bucketizer.
func New(store core.Store, opts ...Option) *Bucketizer {
	b := &Bucketizer{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Compute derives one bucket set from the period's successful route
// durations and persists it. An existing set for the same (period, kind)
// is a guard: pass force to delete and recompute it. Computing over an
// empty sample is core.ErrNoData; a decile split needs at least ten
// samples.
func (b *Bucketizer) Compute(ctx context.Context, period core.Period, mode core.TravelMode, kind core.BucketKind, force bool) ([]core.TimeBucket, error) {
	existing, err := b.store.GetBuckets(ctx, period, kind)
	if err != nil {
		return nil, fmt.Errorf("load existing buckets: %w", err)
	}
	if len(existing) > 0 {
		if !force {
			return nil, core.ErrAlreadyComputed
		}
		if _, err := b.store.DeleteBuckets(ctx, period, kind); err != nil {
			return nil, fmt.Errorf("delete stale buckets: %w", err)
		}
	}

	durations, err := b.store.OKDurations(ctx, period, mode)
	if err != nil {
		return nil, fmt.Errorf("load durations: %w", err)
	}
	if len(durations) == 0 {
		return nil, core.ErrNoData
	}

	b.emitter.Emit(&core.StageStarted{
		Stage:     "buckets",
		Total:     len(durations),
		Message:   fmt.Sprintf("computing %s buckets for %s", kind, period),
		Timestamp: time.Now(),
	})

	var partitions []Partition
	switch kind {
	case core.BucketDecile:
		partitions, err = DecilePartitions(durations)
		if err != nil {
			return nil, err
		}
	default:
		partitions = FixedPartitions()
	}

	colors := palette(kind)
	set := make([]core.TimeBucket, 0, len(partitions))
	for i, p := range partitions {
		set = append(set, core.TimeBucket{
			Period:     period,
			Kind:       kind,
			Ordinal:    i,
			MinSeconds: p.Min,
			MaxSeconds: p.Max,
			Color:      colors[i],
			Label:      label(p),
		})
	}

	if err := b.store.SaveBuckets(ctx, set); err != nil {
		return nil, fmt.Errorf("save buckets: %w", err)
	}

	b.logger.Info("bucket set computed",
		"period", period,
		"kind", kind,
		"buckets", len(set),
		"samples", len(durations))
	b.emitter.Emit(&core.StageCompleted{
		Stage:     "buckets",
		Message:   fmt.Sprintf("%d %s buckets for %s", len(set), kind, period),
		Timestamp: time.Now(),
	})
	return set, nil
}
