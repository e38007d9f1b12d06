// Package kantama computes zone-to-zone public transport accessibility.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	// Open the record store
//	db, _ := gorm.Open(sqlite.Open("kantama.db"), &gorm.Config{})
//	store := kantama.NewStore(db)
//	store.Migrate(context.Background())
//
//	// Ingest zones, seed the task set and run
//	store.SaveZones(ctx, zones)
//	client, _ := kantama.NewRoutingClient(kantama.RoutingConfig{Endpoint: url, Local: true})
//	sched := kantama.NewScheduler(store, client, kantama.RunConfig{})
//	sched.Seed(ctx)
//	summary, _ := sched.Run(ctx)
//
//	// Derive the read-models
//	kantama.NewBucketizer(store).Compute(ctx, kantama.PeriodMorning, kantama.ModeTransit, kantama.BucketFixed, false)
//	kantama.NewScorer(store).ComputeAndStore(ctx, kantama.PeriodMorning, kantama.ModeTransit, false)
package kantama

import (
	"gorm.io/gorm"

	"github.com/MrHaila/kantama/pkg/buckets"
	"github.com/MrHaila/kantama/pkg/config"
	"github.com/MrHaila/kantama/pkg/core"
	"github.com/MrHaila/kantama/pkg/metrics"
	"github.com/MrHaila/kantama/pkg/progress"
	"github.com/MrHaila/kantama/pkg/reach"
	"github.com/MrHaila/kantama/pkg/routing"
	"github.com/MrHaila/kantama/pkg/schedule"
	"github.com/MrHaila/kantama/pkg/scheduler"
	"github.com/MrHaila/kantama/pkg/storage"
)

// Type aliases re-exporting the package API.
type (
	// Zone is a geographic area treated as an atomic origin/destination unit.
	Zone = core.Zone

	// RoutePair identifies one (origin, destination, period, mode) task.
	RoutePair = core.RoutePair

	// RouteRecord holds the persisted outcome of one route query.
	RouteRecord = core.RouteRecord

	// RouteFilter narrows record-store reads and writes.
	RouteFilter = core.RouteFilter

	// Leg is one segment of a returned itinerary.
	Leg = core.Leg

	// Period is a fixed time-of-day used as the query's target clock time.
	Period = core.Period

	// TravelMode selects the transport modes the routing service may use.
	TravelMode = core.TravelMode

	// RouteStatus represents the current state of a route record.
	RouteStatus = core.RouteStatus

	// BucketKind selects a travel-time partitioning scheme.
	BucketKind = core.BucketKind

	// TimeBucket is one labeled, colored duration partition.
	TimeBucket = core.TimeBucket

	// ReachabilityScore is the per-zone accessibility read-model.
	ReachabilityScore = core.ReachabilityScore

	// ProgressEntry records per (group, period) completion counters.
	ProgressEntry = core.ProgressEntry

	// StatusCounts aggregates record counts by status.
	StatusCounts = core.StatusCounts

	// RunSummary aggregates the outcome counts of one run.
	RunSummary = core.RunSummary

	// Store defines the persistence layer for the pipeline.
	Store = core.Store

	// Event is the interface for all pipeline progress events.
	Event = core.Event

	// RunStarted is emitted before the first chunk of a run is dispatched.
	RunStarted = core.RunStarted

	// RouteProgress carries cumulative counters, once per completed chunk.
	RouteProgress = core.RouteProgress

	// GroupCompleted is emitted after a work group fully drains.
	GroupCompleted = core.GroupCompleted

	// RunCompleted is emitted after all work groups drain.
	RunCompleted = core.RunCompleted

	// RunFailed is emitted when a run aborts or is interrupted.
	RunFailed = core.RunFailed

	// StageStarted is emitted when a read-model stage begins.
	StageStarted = core.StageStarted

	// StageCompleted is emitted when a read-model stage finishes.
	StageCompleted = core.StageCompleted

	// RateLimitExceededError reports a query throttled past the retry cap.
	RateLimitExceededError = core.RateLimitExceededError

	// GormStore is the GORM-backed Store implementation.
	GormStore = storage.GormStore

	// PoolOption tunes the database connection pool.
	PoolOption = storage.PoolOption

	// RoutingClient issues and classifies remote routing queries.
	RoutingClient = routing.Client

	// RoutingConfig configures the routing client.
	RoutingConfig = routing.Config

	// PlanResult is the classified outcome of one routing query.
	PlanResult = routing.PlanResult

	// RetryConfig tunes the rate-limit backoff.
	RetryConfig = routing.RetryConfig

	// Scheduler drives the route computation phase.
	Scheduler = scheduler.Scheduler

	// RunConfig configures a scheduler run.
	RunConfig = scheduler.Config

	// Classifier issues one routing query and classifies the response.
	Classifier = scheduler.Classifier

	// Bucketizer derives travel-time bucket sets.
	Bucketizer = buckets.Bucketizer

	// Scorer derives per-zone reachability scores.
	Scorer = reach.Scorer

	// Emitter fans progress events out to subscribers.
	Emitter = progress.Emitter

	// Metrics holds the pipeline's Prometheus collectors.
	Metrics = metrics.Metrics

	// Schedule defines when a recurring refresh should run next.
	Schedule = schedule.Schedule

	// Config is the YAML configuration document.
	Config = config.Config
)

// Periods
const (
	PeriodMorning  = core.PeriodMorning
	PeriodEvening  = core.PeriodEvening
	PeriodMidnight = core.PeriodMidnight
)

// Travel modes
const (
	ModeTransit = core.ModeTransit
	ModeWalk    = core.ModeWalk
	ModeBicycle = core.ModeBicycle
)

// Route statuses
const (
	StatusPending = core.StatusPending
	StatusOK      = core.StatusOK
	StatusNoRoute = core.StatusNoRoute
	StatusError   = core.StatusError
)

// Bucket kinds
const (
	BucketFixed  = core.BucketFixed
	BucketDecile = core.BucketDecile
)

// OpenBound marks an unbounded partition maximum.
const OpenBound = core.OpenBound

// Sentinel errors
var (
	ErrNoData          = core.ErrNoData
	ErrAlreadyComputed = core.ErrAlreadyComputed
	ErrMissingAPIKey   = core.ErrMissingAPIKey
	ErrNoZones         = core.ErrNoZones
	ErrSelfPair        = core.ErrSelfPair
	ErrTooFewSamples   = core.ErrTooFewSamples
)

// NewStore creates a GORM-backed store.
func NewStore(db *gorm.DB) *GormStore {
	return storage.NewGormStore(db)
}

// NewStoreWithPool creates a GORM-backed store with pool tuning applied.
func NewStoreWithPool(db *gorm.DB, opts ...PoolOption) (*GormStore, error) {
	return storage.NewGormStoreWithPool(db, opts...)
}

// NewRoutingClient creates a routing client.
func NewRoutingClient(cfg RoutingConfig, opts ...routing.ClientOption) (*RoutingClient, error) {
	return routing.NewClient(cfg, opts...)
}

// NewScheduler creates a scheduler.
func NewScheduler(store Store, classifier Classifier, cfg RunConfig, opts ...scheduler.Option) *Scheduler {
	return scheduler.New(store, classifier, cfg, opts...)
}

// NewBucketizer creates a bucketizer.
func NewBucketizer(store Store, opts ...buckets.Option) *Bucketizer {
	return buckets.New(store, opts...)
}

// NewScorer creates a reachability scorer.
func NewScorer(store Store, opts ...reach.Option) *Scorer {
	return reach.New(store, opts...)
}

// NewEmitter creates a progress event emitter.
func NewEmitter() *Emitter {
	return progress.NewEmitter()
}

// NewMetrics creates the Prometheus collector set on its own registry.
func NewMetrics() *Metrics {
	return metrics.New()
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ServiceDay returns the canonical service day for a run started at the
// given time.
var ServiceDay = schedule.ServiceDay

// Recurring refresh schedules.
var (
	Every  = schedule.Every
	Daily  = schedule.Daily
	Weekly = schedule.Weekly
	Cron   = schedule.Cron
)

// RateLimitExceeded wraps an error once the rate-limit retry cap is hit.
var RateLimitExceeded = core.RateLimitExceeded

// Scheduler options.
var (
	WithRunEmitter = scheduler.WithEmitter
	WithRunMetrics = scheduler.WithMetrics
	WithRunLogger  = scheduler.WithLogger
)
