// Package routing wraps the remote journey-planning service.
//
// This package includes:
//   - Client: issues one plan query per (origin, destination, time) task
//   - PlanResult: the classified outcome (ok, no_route, error)
//   - RetryConfig: capped exponential backoff for rate-limited queries
//
// The client never decides what to do with an outcome; it only classifies.
// Routing itself (graph search, schedule modeling) is the remote service's
// concern.
package routing
