// Package persistence stores the serialized display state that was active
// before displayctl changed anything, so a later revert (possibly after a
// crash) knows what to restore.
package persistence

import (
	"context"
	"strings"
)

// Store is a durable single-record store for the prior display state.
// Load returns (nil, nil) when no record exists.
type Store interface {
	Save(ctx context.Context, state []byte) error
	Load(ctx context.Context) ([]byte, error)
	Clear(ctx context.Context) error
	Close() error
}

// NewStore selects a backend by path extension: ".db", ".sqlite" and
// ".sqlite3" use SQLite, anything else a flat file.
func NewStore(path string) (Store, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite") || strings.HasSuffix(lower, ".sqlite3") {
		return NewSQLiteStore(path)
	}
	return NewFileStore(path)
}
