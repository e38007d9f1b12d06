package core

import (
	"context"
)

// RouteFilter narrows record-store reads and writes. Zero values mean
// "no constraint"; GroupMembers restricts both endpoints of a pair to
// the given zone IDs.
type RouteFilter struct {
	GroupMembers []string
	Period       Period
	Mode         TravelMode
	Status       RouteStatus
}

// Store defines the persistence layer for the pipeline: the record store,
// the progress ledger, and the read-model outputs.
type Store interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Zones
	SaveZones(ctx context.Context, zones []Zone) error
	ListZones(ctx context.Context, groupKey string) ([]Zone, error)
	GroupKeys(ctx context.Context) ([]string, error)

	// Record store
	SeedRoutes(ctx context.Context, zones []Zone, periods []Period, modes []TravelMode) (int64, error)
	PendingRoutes(ctx context.Context, f RouteFilter) ([]RoutePair, error)
	SaveOutcome(ctx context.Context, rec *RouteRecord) error
	CountByStatus(ctx context.Context, f RouteFilter) (StatusCounts, error)
	ResetRoutes(ctx context.Context, f RouteFilter) (int64, error)
	OKDurations(ctx context.Context, period Period, mode TravelMode) ([]int, error)
	RoutesByOrigin(ctx context.Context, period Period, mode TravelMode) (map[string][]RouteRecord, error)

	// Progress ledger
	GetProgress(ctx context.Context, groupKey string, period Period) (*ProgressEntry, error)
	PutProgress(ctx context.Context, entry *ProgressEntry) error

	// Read-models
	SaveBuckets(ctx context.Context, buckets []TimeBucket) error
	GetBuckets(ctx context.Context, period Period, kind BucketKind) ([]TimeBucket, error)
	DeleteBuckets(ctx context.Context, period Period, kind BucketKind) (int64, error)
	SaveScores(ctx context.Context, scores []ReachabilityScore) error
	GetScores(ctx context.Context, period Period) ([]ReachabilityScore, error)
	DeleteScores(ctx context.Context, period Period) (int64, error)
}
