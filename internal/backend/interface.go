// Package backend builds the record store selected by DATA_BACKEND.
package backend

import (
	"context"

	"spendtrack/internal/records"
)

// Type names a storage backend.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t is a known backend type.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is a ready-to-use backend.
type Result struct {
	Store      records.Store
	Categories records.CategoryReader
	// Ping reports whether the backend can serve requests.
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Config holds what the factory needs to build a backend.
type Config struct {
	Type Type

	SQLiteDBPath string

	// DataDirectory holds seed_categories.txt for the memory backend.
	DataDirectory string
}
