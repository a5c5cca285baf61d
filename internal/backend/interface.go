package backend

import (
	"context"

	"findash/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// HealthFunc reports whether the store is usable.
type HealthFunc func(ctx context.Context) error

// BackendResult contains the dataset store and its lifecycle hooks.
type BackendResult struct {
	Store   sheets.DatasetStore
	Health  HealthFunc
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// KeepDatasets bounds the stored history; 0 keeps everything (sqlite)
	// or only the active dataset (memory).
	KeepDatasets int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
