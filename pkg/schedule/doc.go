// Package schedule maps periods to deterministic query times and provides
// recurring schedules for pipeline refreshes.
//
// This package includes:
//   - ServiceDay: the canonical upcoming reference date all runs query
//   - QueryClock/QueryTime: the fixed wall-clock time per period
//   - Schedule: Every, Daily, Weekly and Cron recurrence rules
//
// Repeated runs against the same service day hit the same transit
// schedule, which keeps route records comparable across runs.
package schedule
