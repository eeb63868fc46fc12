// Package store provides typed collection access over the generic layer.
package store

import (
	"context"
	"encoding/json"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
)

// Collection provides typed access to one named collection: one concrete
// record type per collection instead of raw JSON flowing through the
// generic layer.
type Collection[T any] struct {
	store *Store
	name  string
}

// NewCollection binds a record type to a named collection.
func NewCollection[T any](s *Store, name string) Collection[T] {
	return Collection[T]{store: s, name: name}
}

// Name returns the collection name.
func (c Collection[T]) Name() string {
	return c.name
}

// All returns every record, order unspecified.
func (c Collection[T]) All(ctx context.Context) ([]T, error) {
	raw, err := c.store.GetAll(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](c.name, raw)
}

// Get returns the record with the given identifier, or nil when absent.
func (c Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	raw, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, "decoding record from collection "+c.name, err)
	}
	return &rec, nil
}

// ByIndex returns all records whose indexed field equals value.
func (c Collection[T]) ByIndex(ctx context.Context, index string, value any) ([]T, error) {
	raw, err := c.store.GetByIndex(ctx, c.name, index, value)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](c.name, raw)
}

// Put upserts a record and returns the identifier used.
func (c Collection[T]) Put(ctx context.Context, rec T) (string, error) {
	record, err := json.Marshal(rec)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrInternal, "encoding record for collection "+c.name, err)
	}
	return c.store.Put(ctx, c.name, record)
}

// Delete removes a record; absent identifiers are a no-op.
func (c Collection[T]) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

// Clear removes every record in the collection.
func (c Collection[T]) Clear(ctx context.Context) error {
	return c.store.Clear(ctx, c.name)
}

func decodeAll[T any](collection string, raw []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var rec T
		if err := json.Unmarshal(r, &rec); err != nil {
			return nil, apperr.Wrap(apperr.ErrInternal, "decoding record from collection "+collection, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
