// Package store owns the structured local store for CarKeeper Core.
package store

import (
	"context"
	"encoding/json"
)

// Backend is a storage engine implementing the collection access layer.
// Two implementations exist: the SQLite-backed sqlBackend and the
// degraded flat key-value fileBackend. The backend is chosen once when
// the store is opened; call sites never branch on it.
//
// Semantics shared by both:
//   - Get returns (nil, nil) when the record is absent.
//   - Put upserts by the collection's identifier field and returns the
//     identifier used.
//   - Delete of an absent identifier is a no-op.
//   - Unknown collection or index names fail fast with a descriptive
//     error.
//
// Each write commits on its own; there are no cross-collection
// transactions.
type Backend interface {
	GetAll(ctx context.Context, collection string) ([]json.RawMessage, error)
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	GetByIndex(ctx context.Context, collection, index string, value any) ([]json.RawMessage, error)
	Put(ctx context.Context, collection string, record json.RawMessage) (string, error)
	Delete(ctx context.Context, collection, id string) error
	Clear(ctx context.Context, collection string) error

	// Degraded reports whether this backend is the flat key-value
	// fallback, on which GetByIndex is unavailable.
	Degraded() bool

	Close() error
}
