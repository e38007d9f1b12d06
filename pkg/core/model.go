package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Period is a fixed time-of-day used as the routing query's target clock time.
type Period string

const (
	PeriodMorning  Period = "MORNING"
	PeriodEvening  Period = "EVENING"
	PeriodMidnight Period = "MIDNIGHT"
)

// AllPeriods returns every period in canonical order.
func AllPeriods() []Period {
	return []Period{PeriodMorning, PeriodEvening, PeriodMidnight}
}

// TravelMode selects the transport modes the routing service may use.
type TravelMode string

const (
	ModeTransit TravelMode = "TRANSIT"
	ModeWalk    TravelMode = "WALK"
	ModeBicycle TravelMode = "BICYCLE"
)

// RouteStatus represents the current state of a route record.
type RouteStatus string

const (
	StatusPending RouteStatus = "pending"
	StatusOK      RouteStatus = "ok"
	StatusNoRoute RouteStatus = "no_route"
	StatusError   RouteStatus = "error"
)

// Zone is a geographic area treated as an atomic origin/destination unit.
// Zones are immutable once ingested; geometry acquisition happens upstream
// and only the representative point survives into the pipeline.
type Zone struct {
	ID       string `gorm:"primaryKey;size:64"`
	GroupKey string `gorm:"index;size:255;not null"`
	Name     string `gorm:"size:255"`
	Lat      float64
	Lon      float64
}

// RoutePair uniquely identifies one unit of work: a single
// (origin, destination, period, mode) tuple. Self-pairs are never generated.
type RoutePair struct {
	FromID string
	ToID   string
	Period Period
	Mode   TravelMode
}

// Key returns a stable string identity for the pair.
func (p RoutePair) Key() string {
	return fmt.Sprintf("%s:%s:%s:%s", p.FromID, p.ToID, p.Period, p.Mode)
}

// Leg is one segment of a returned itinerary.
type Leg struct {
	Mode     string  `json:"mode"`
	Duration int     `json:"duration"`
	Distance float64 `json:"distance"`
	From     string  `json:"from"`
	To       string  `json:"to"`
}

// RouteRecord holds the persisted outcome of one route query.
//
// The outcome fields (Duration, Transfers, WalkDistance, Legs) are set iff
// Status is StatusOK. An error record instead carries its diagnostic string
// in the Legs slot. A record moves pending -> {ok, no_route, error} exactly
// once per run; the only reverse transition is the bulk reset operation,
// which clears all four outcome fields together with the status.
type RouteRecord struct {
	ID           uint        `gorm:"primaryKey;autoIncrement"`
	FromID       string      `gorm:"size:64;not null;uniqueIndex:idx_route_tuple,priority:1"`
	ToID         string      `gorm:"size:64;not null;uniqueIndex:idx_route_tuple,priority:2"`
	Period       Period      `gorm:"size:16;not null;uniqueIndex:idx_route_tuple,priority:3"`
	Mode         TravelMode  `gorm:"size:16;not null;uniqueIndex:idx_route_tuple,priority:4"`
	Status       RouteStatus `gorm:"index;size:16;default:'pending'"`
	Duration     *int
	Transfers    *int
	WalkDistance *float64
	Legs         *string   `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Pair returns the identifying tuple of the record.
func (r *RouteRecord) Pair() RoutePair {
	return RoutePair{FromID: r.FromID, ToID: r.ToID, Period: r.Period, Mode: r.Mode}
}

// SetLegs serializes legs into the record's Legs slot.
func (r *RouteRecord) SetLegs(legs []Leg) error {
	data, err := json.Marshal(legs)
	if err != nil {
		return fmt.Errorf("kantama: marshal legs: %w", err)
	}
	s := string(data)
	r.Legs = &s
	return nil
}

// DecodedLegs parses the Legs slot back into leg structs.
// Returns nil for records without legs (and for error diagnostics).
func (r *RouteRecord) DecodedLegs() []Leg {
	if r.Status != StatusOK || r.Legs == nil {
		return nil
	}
	var legs []Leg
	if err := json.Unmarshal([]byte(*r.Legs), &legs); err != nil {
		return nil
	}
	return legs
}

// ProgressEntry records per (group, period) completion counters. It is a
// resume hint only: the record store's status counts are the source of
// truth, and a stale ledger never gates correctness.
type ProgressEntry struct {
	GroupKey   string    `gorm:"primaryKey;size:255"`
	Period     Period    `gorm:"primaryKey;size:16"`
	Completed  int64     `gorm:"not null;default:0"`
	Total      int64     `gorm:"not null;default:0"`
	LastUpdate time.Time `gorm:"autoUpdateTime"`
}

// BucketKind selects which partitioning scheme a TimeBucket set was built with.
type BucketKind string

const (
	BucketFixed  BucketKind = "fixed"
	BucketDecile BucketKind = "decile"
)

// OpenBound marks an unbounded partition maximum. The last partition of
// every bucket set is open-ended so the set covers [0, infinity).
const OpenBound = -1

// TimeBucket is one labeled, colored partition of the realized duration
// sample. A full set is total, gap-free and non-overlapping.
type TimeBucket struct {
	ID         uint       `gorm:"primaryKey;autoIncrement"`
	Period     Period     `gorm:"size:16;not null;uniqueIndex:idx_bucket,priority:1"`
	Kind       BucketKind `gorm:"size:16;not null;uniqueIndex:idx_bucket,priority:2"`
	Ordinal    int        `gorm:"not null;uniqueIndex:idx_bucket,priority:3"`
	MinSeconds int        `gorm:"not null"`
	MaxSeconds int        `gorm:"not null"`
	Color      string     `gorm:"size:16"`
	Label      string     `gorm:"size:64"`
}

// Open reports whether the bucket's upper bound is unbounded.
func (b TimeBucket) Open() bool { return b.MaxSeconds == OpenBound }

// ReachabilityScore is the derived per-zone accessibility read-model,
// recomputed wholesale per period rather than incrementally maintained.
type ReachabilityScore struct {
	ID             uint    `gorm:"primaryKey;autoIncrement"`
	Period         Period  `gorm:"size:16;not null;uniqueIndex:idx_score,priority:1"`
	ZoneID         string  `gorm:"size:64;not null;uniqueIndex:idx_score,priority:2"`
	Score          float64 `gorm:"not null"`
	Rank           int     `gorm:"not null"`
	Within15       int     `gorm:"not null"`
	Within30       int     `gorm:"not null"`
	Within45       int     `gorm:"not null"`
	MedianDuration int     `gorm:"not null"`
	MeanDuration   float64 `gorm:"not null"`
}

// StatusCounts aggregates record counts by status for a filter.
type StatusCounts struct {
	Total   int64
	Pending int64
	OK      int64
	NoRoute int64
	Errors  int64
}

// Completed returns the number of records that have left the pending state.
func (c StatusCounts) Completed() int64 { return c.Total - c.Pending }

// RunSummary aggregates the outcome counts of one pipeline run.
type RunSummary struct {
	Processed int64
	OK        int64
	NoRoute   int64
	Errors    int64
}
