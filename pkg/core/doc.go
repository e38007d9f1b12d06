// Package core provides the fundamental types and interfaces for the kantama pipeline.
//
// This package contains:
//   - Zone, RoutePair and RouteRecord data models with GORM annotations
//   - TimeBucket and ReachabilityScore read-model types
//   - Store interface defining the persistence contract
//   - Event types for pipeline progress monitoring
//   - Error types for route processing and aggregation
//
// Most users should import the root package github.com/MrHaila/kantama
// instead of this package directly.
package core
