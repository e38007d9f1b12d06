package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrHaila/kantama/pkg/core"
	"github.com/MrHaila/kantama/pkg/metrics"
	"github.com/MrHaila/kantama/pkg/progress"
	"github.com/MrHaila/kantama/pkg/routing"
	"github.com/MrHaila/kantama/pkg/schedule"
)

// Classifier issues one routing query for a zone pair and classifies the
// response. *routing.Client satisfies it; tests substitute fakes.
type Classifier interface {
	Plan(ctx context.Context, from, to core.Zone, mode core.TravelMode, date, clock string) (*routing.PlanResult, error)
}

// Config holds the run configuration. Everything is explicit; the
// scheduler never consults the process environment.
type Config struct {
	// Periods to compute. Default: all three.
	Periods []core.Period

	// Mode is the travel mode for every query. Default: transit.
	Mode core.TravelMode

	// Concurrency bounds simultaneous in-flight queries. Default: 8,
	// clamped to core.MaxConcurrency.
	Concurrency int

	// ChunkSize is the number of tasks dispatched per batch. Progress is
	// emitted and cancellation observed on chunk boundaries. Default: 100.
	ChunkSize int

	// JitterMax adds a uniform random [0, JitterMax) pause before each
	// dispatched query to avoid thundering the remote service. Zero
	// disables jitter; local endpoints should leave it zero.
	JitterMax time.Duration

	// RetryFailed reopens records that previously classified as errors
	// before selecting work, so a run can re-drive past failures.
	RetryFailed bool
}

func (c *Config) applyDefaults() {
	if len(c.Periods) == 0 {
		c.Periods = core.AllPeriods()
	}
	if c.Mode == "" {
		c.Mode = core.ModeTransit
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	c.Concurrency = core.ClampConcurrency(c.Concurrency)
	if c.ChunkSize <= 0 {
		c.ChunkSize = 100
	}
}

// Scheduler owns one store and one classifier and runs the pipeline's
// route computation phase against them.
type Scheduler struct {
	store      core.Store
	classifier Classifier
	cfg        Config

	emitter *progress.Emitter
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithEmitter attaches a progress event emitter.
func WithEmitter(e *progress.Emitter) Option {
	return func(s *Scheduler) { s.emitter = e }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithLogger sets the scheduler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source. Used by tests to pin the service day.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Scheduler.
func New(store core.Store, classifier Classifier, cfg Config, opts ...Option) *Scheduler {
	cfg.applyDefaults()
	s := &Scheduler{
		store:      store,
		classifier: classifier,
		cfg:        cfg,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed materializes the full pending task set for every ingested zone
// group: ordered intra-group pairs crossed with the configured periods
// and mode. Seeding is idempotent; existing records are left untouched.
func (s *Scheduler) Seed(ctx context.Context) (int64, error) {
	zones, err := s.store.ListZones(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list zones: %w", err)
	}
	created, err := s.store.SeedRoutes(ctx, zones, s.cfg.Periods, []core.TravelMode{s.cfg.Mode})
	if err != nil {
		return 0, err
	}
	s.logger.Info("seeded route records", "created", created, "zones", len(zones))
	return created, nil
}

// workGroup is one (group, period) unit of schedulable work.
type workGroup struct {
	groupKey string
	period   core.Period
	zones    map[string]core.Zone
	pairs    []core.RoutePair
}

func (g *workGroup) filter() core.RouteFilter {
	members := make([]string, 0, len(g.zones))
	for id := range g.zones {
		members = append(members, id)
	}
	return core.RouteFilter{GroupMembers: members, Period: g.period}
}

// Run drains every remaining route task and returns the run's outcome
// counts. Cancellation is observed between chunks only; tasks already
// dispatched complete and persist, so an interrupted run loses no work.
func (s *Scheduler) Run(ctx context.Context) (*core.RunSummary, error) {
	runID := uuid.NewString()
	serviceDay := schedule.ServiceDay(s.now())
	date := schedule.QueryDate(serviceDay)

	groups, total, err := s.collectWork(ctx)
	if err != nil {
		s.emit(&core.RunFailed{RunID: runID, Err: err, Timestamp: s.now()})
		return nil, err
	}

	s.logger.Info("run starting",
		"run_id", runID,
		"service_day", date,
		"groups", len(groups),
		"tasks", total)
	s.emit(&core.RunStarted{RunID: runID, Total: total, Groups: len(groups), Timestamp: s.now()})

	summary := &core.RunSummary{}
	counters := &runCounters{total: total, started: s.now()}

	for _, group := range groups {
		if err := s.runGroup(ctx, runID, group, counters); err != nil {
			s.writeLedger(context.WithoutCancel(ctx), group)
			counters.fill(summary)
			s.emit(&core.RunFailed{RunID: runID, Err: err, Timestamp: s.now()})
			return summary, err
		}

		counts := s.writeLedger(ctx, group)
		s.emit(&core.GroupCompleted{
			RunID:     runID,
			GroupKey:  group.groupKey,
			Period:    group.period,
			Counts:    counts,
			Timestamp: s.now(),
		})
	}

	counters.fill(summary)
	s.logger.Info("run completed",
		"run_id", runID,
		"processed", summary.Processed,
		"ok", summary.OK,
		"no_route", summary.NoRoute,
		"errors", summary.Errors)
	s.emit(&core.RunCompleted{RunID: runID, Summary: *summary, Timestamp: s.now()})
	return summary, nil
}

// collectWork builds the per-(group, period) work list from the record
// store. Groups whose records have all left the pending state are skipped
// outright, which is what makes a re-run a resume.
func (s *Scheduler) collectWork(ctx context.Context) ([]*workGroup, int64, error) {
	groupKeys, err := s.store.GroupKeys(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}
	if len(groupKeys) == 0 {
		return nil, 0, core.ErrNoZones
	}

	var groups []*workGroup
	var total int64
	for _, key := range groupKeys {
		zones, err := s.store.ListZones(ctx, key)
		if err != nil {
			return nil, 0, fmt.Errorf("list zones for %q: %w", key, err)
		}
		byID := make(map[string]core.Zone, len(zones))
		members := make([]string, 0, len(zones))
		for _, z := range zones {
			byID[z.ID] = z
			members = append(members, z.ID)
		}

		for _, period := range s.cfg.Periods {
			f := core.RouteFilter{GroupMembers: members, Period: period, Mode: s.cfg.Mode}

			if s.cfg.RetryFailed {
				reopenFilter := f
				reopenFilter.Status = core.StatusError
				reopened, err := s.store.ResetRoutes(ctx, reopenFilter)
				if err != nil {
					return nil, 0, fmt.Errorf("reopen failed routes for %q/%s: %w", key, period, err)
				}
				if reopened > 0 {
					s.logger.Info("reopened failed routes", "group", key, "period", period, "count", reopened)
				}
			}

			pairs, err := s.store.PendingRoutes(ctx, f)
			if err != nil {
				return nil, 0, fmt.Errorf("pending routes for %q/%s: %w", key, period, err)
			}
			if len(pairs) == 0 {
				continue
			}

			// The ledger is a hint; a stale entry is worth a log line but
			// never gates the store's own accounting.
			if entry, err := s.store.GetProgress(ctx, key, period); err == nil && entry != nil {
				if entry.Completed >= entry.Total && entry.Total > 0 {
					s.logger.Warn("progress ledger is stale, store still has pending work",
						"group", key,
						"period", period,
						"ledger_completed", entry.Completed,
						"pending", len(pairs))
				} else {
					s.logger.Info("resuming group",
						"group", key,
						"period", period,
						"ledger_completed", entry.Completed,
						"ledger_total", entry.Total,
						"pending", len(pairs))
				}
			}

			groups = append(groups, &workGroup{
				groupKey: key,
				period:   period,
				zones:    byID,
				pairs:    pairs,
			})
			total += int64(len(pairs))
		}
	}
	return groups, total, nil
}

// runCounters tracks cumulative progress across all groups of one run.
type runCounters struct {
	total   int64
	started time.Time

	processed atomic.Int64
	ok        atomic.Int64
	noRoute   atomic.Int64
	errors    atomic.Int64
}

func (c *runCounters) record(status core.RouteStatus) {
	c.processed.Add(1)
	switch status {
	case core.StatusOK:
		c.ok.Add(1)
	case core.StatusNoRoute:
		c.noRoute.Add(1)
	default:
		c.errors.Add(1)
	}
}

func (c *runCounters) fill(summary *core.RunSummary) {
	summary.Processed = c.processed.Load()
	summary.OK = c.ok.Load()
	summary.NoRoute = c.noRoute.Load()
	summary.Errors = c.errors.Load()
}

func (c *runCounters) snapshot(now time.Time) *core.RouteProgress {
	processed := c.processed.Load()
	elapsed := now.Sub(c.started)
	var eta time.Duration
	if processed > 0 && processed < c.total {
		perTask := elapsed / time.Duration(processed)
		eta = perTask * time.Duration(c.total-processed)
	}
	return &core.RouteProgress{
		Processed: processed,
		Total:     c.total,
		OK:        c.ok.Load(),
		NoRoute:   c.noRoute.Load(),
		Errors:    c.errors.Load(),
		Elapsed:   elapsed,
		ETA:       eta,
		Timestamp: now,
	}
}

// runGroup drains one work group chunk by chunk.
func (s *Scheduler) runGroup(ctx context.Context, runID string, group *workGroup, counters *runCounters) error {
	date := schedule.QueryDate(schedule.ServiceDay(s.now()))
	clock := schedule.QueryTime(group.period)

	for offset := 0; offset < len(group.pairs); offset += s.cfg.ChunkSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := offset + s.cfg.ChunkSize
		if end > len(group.pairs) {
			end = len(group.pairs)
		}
		chunk := group.pairs[offset:end]

		// Dispatched tasks always run to completion and persist their
		// outcome even if the run context is cancelled mid-chunk.
		taskCtx := context.WithoutCancel(ctx)
		s.runChunk(taskCtx, group, chunk, date, clock, counters)

		ev := counters.snapshot(s.now())
		ev.RunID = runID
		s.emit(ev)
	}
	return nil
}

func (s *Scheduler) runChunk(ctx context.Context, group *workGroup, chunk []core.RoutePair, date, clock string, counters *runCounters) {
	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, pair := range chunk {
		wg.Add(1)
		sem <- struct{}{}
		go func(pair core.RoutePair) {
			defer wg.Done()
			defer func() { <-sem }()

			status := s.runTask(ctx, group, pair, date, clock)
			counters.record(status)
		}(pair)
	}
	wg.Wait()
}

// runTask executes one routing query and persists its classified outcome.
// Every task ends in exactly one SaveOutcome; failures classify as error
// records rather than stopping the run.
func (s *Scheduler) runTask(ctx context.Context, group *workGroup, pair core.RoutePair, date, clock string) core.RouteStatus {
	rec := &core.RouteRecord{
		FromID: pair.FromID,
		ToID:   pair.ToID,
		Period: pair.Period,
		Mode:   pair.Mode,
	}

	from, fromOK := group.zones[pair.FromID]
	to, toOK := group.zones[pair.ToID]
	if !fromOK || !toOK || missingPoint(from) || missingPoint(to) {
		rec.Status = core.StatusError
		diag := fmt.Sprintf("no representative point for pair %s -> %s", pair.FromID, pair.ToID)
		rec.Legs = &diag
		s.persist(ctx, rec)
		return rec.Status
	}

	if s.cfg.JitterMax > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(rand.Int63n(int64(s.cfg.JitterMax)))):
		}
	}

	done := s.metrics.TrackInFlight()
	started := time.Now()
	result, err := s.classifier.Plan(ctx, from, to, pair.Mode, date, clock)
	done()

	if err != nil {
		s.logger.Warn("route query failed",
			"from", pair.FromID,
			"to", pair.ToID,
			"period", pair.Period,
			"error", err)
		rec.Status = core.StatusError
		diag := core.SanitizeDiagnostic(err.Error())
		rec.Legs = &diag
		s.metrics.ObserveOutcome(string(rec.Status), time.Since(started).Seconds())
		s.persist(ctx, rec)
		return rec.Status
	}

	rec.Status = result.Status
	switch result.Status {
	case core.StatusOK:
		duration := result.Duration
		transfers := result.Transfers
		walk := result.WalkDistance
		rec.Duration = &duration
		rec.Transfers = &transfers
		rec.WalkDistance = &walk
		if err := rec.SetLegs(result.Legs); err != nil {
			s.logger.Warn("encode legs failed", "from", pair.FromID, "to", pair.ToID, "error", err)
		}
	case core.StatusError:
		diag := result.Diagnostic
		rec.Legs = &diag
	}

	s.metrics.ObserveOutcome(string(rec.Status), time.Since(started).Seconds())
	s.persist(ctx, rec)
	return rec.Status
}

func (s *Scheduler) persist(ctx context.Context, rec *core.RouteRecord) {
	if err := s.store.SaveOutcome(ctx, rec); err != nil {
		s.logger.Error("persist outcome failed",
			"from", rec.FromID,
			"to", rec.ToID,
			"period", rec.Period,
			"error", err)
	}
}

// writeLedger refreshes the (group, period) progress entry from the
// store's authoritative counts.
func (s *Scheduler) writeLedger(ctx context.Context, group *workGroup) core.StatusCounts {
	f := group.filter()
	f.Mode = s.cfg.Mode
	counts, err := s.store.CountByStatus(ctx, f)
	if err != nil {
		s.logger.Error("count group status failed", "group", group.groupKey, "period", group.period, "error", err)
		return counts
	}
	entry := &core.ProgressEntry{
		GroupKey:  group.groupKey,
		Period:    group.period,
		Completed: counts.Completed(),
		Total:     counts.Total,
	}
	if err := s.store.PutProgress(ctx, entry); err != nil {
		s.logger.Error("write progress ledger failed", "group", group.groupKey, "period", group.period, "error", err)
	}
	return counts
}

func (s *Scheduler) emit(ev core.Event) {
	s.emitter.Emit(ev)
}

func missingPoint(z core.Zone) bool {
	return z.Lat == 0 && z.Lon == 0
}
