// Package progress provides the typed event stream the pipeline publishes to.
//
// This package includes:
//   - Emitter: broadcasts core.Event values to subscriber channels
//
// Consumers (CLI, TUI) subscribe and render; the pipeline itself has no
// rendering responsibility and works identically with zero subscribers.
package progress
