// Package storage provides persistence for the kantama pipeline.
//
// This package includes:
//   - GormStore: A GORM-based implementation backed by SQLite
//   - Connection pool configuration helpers
//
// The Store interface is defined in pkg/core and must be implemented
// by any custom storage backend.
//
// Most users should import the root package github.com/MrHaila/kantama
// which provides NewGormStore() to create storage instances.
package storage
