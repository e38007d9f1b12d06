package core

import "time"

// Event is the interface for all pipeline progress events.
type Event interface {
	eventMarker()
}

// RunStarted is emitted once before the first chunk of a run is dispatched.
type RunStarted struct {
	RunID     string
	Total     int64
	Groups    int
	Timestamp time.Time
}

func (*RunStarted) eventMarker() {}

// RouteProgress carries cumulative counters, emitted once per completed
// chunk. ETA is zero until at least one task has completed.
type RouteProgress struct {
	RunID     string
	Processed int64
	Total     int64
	OK        int64
	NoRoute   int64
	Errors    int64
	Elapsed   time.Duration
	ETA       time.Duration
	Timestamp time.Time
}

func (*RouteProgress) eventMarker() {}

// GroupCompleted is emitted after a (group, period) work group fully drains
// and its ledger entry has been written.
type GroupCompleted struct {
	RunID     string
	GroupKey  string
	Period    Period
	Counts    StatusCounts
	Timestamp time.Time
}

func (*GroupCompleted) eventMarker() {}

// RunCompleted is emitted after all work groups drain.
type RunCompleted struct {
	RunID     string
	Summary   RunSummary
	Timestamp time.Time
}

func (*RunCompleted) eventMarker() {}

// RunFailed is emitted when a run aborts on a fatal precondition or is
// interrupted before all groups drain.
type RunFailed struct {
	RunID     string
	Err       error
	Timestamp time.Time
}

func (*RunFailed) eventMarker() {}

// StageStarted is emitted when a read-model stage (buckets, deciles,
// reachability) begins.
type StageStarted struct {
	Stage     string
	Total     int
	Message   string
	Timestamp time.Time
}

func (*StageStarted) eventMarker() {}

// StageCompleted is emitted when a read-model stage finishes.
type StageCompleted struct {
	Stage     string
	Message   string
	Timestamp time.Time
}

func (*StageCompleted) eventMarker() {}
