// Package store provides the degraded-mode flat key-value fallback.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
	"github.com/tknelms/carkeeper/backend/internal/logging"
)

// keyPrefix scopes every flat key written by degraded mode. A record
// lives under "carkeeper:<collection>:<id>".
const keyPrefix = "carkeeper"

func flatKey(collection, id string) string {
	return keyPrefix + ":" + collection + ":" + id
}

// fileBackend is the degraded-mode store: a flat key-value map of
// JSON-serialized records persisted to a single file. No secondary-index
// queries; GetByIndex fails with ErrIndexUnavailable. Operations are
// synchronous and effectively instantaneous.
type fileBackend struct {
	mu      sync.Mutex
	path    string
	entries map[string]json.RawMessage
}

// openFile loads (or creates) the flat key-value store at path.
func openFile(path string) (*fileBackend, error) {
	b := &fileBackend{path: path, entries: make(map[string]json.RawMessage)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return b, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrEngineUnavailable, "reading fallback store", err)
	}
	if err := json.Unmarshal(data, &b.entries); err != nil {
		return nil, apperr.Wrap(apperr.ErrEngineUnavailable, "parsing fallback store", err)
	}
	return b, nil
}

// save writes the whole map back out. Write-to-temp-then-rename keeps a
// crash from truncating the previous state.
func (b *fileBackend) save() error {
	data, err := json.Marshal(b.entries)
	if err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "encoding fallback store", err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "creating fallback store directory", err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "writing fallback store", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return apperr.Wrap(apperr.ErrDatabase, "replacing fallback store", err)
	}
	return nil
}

func (b *fileBackend) GetAll(_ context.Context, collection string) ([]json.RawMessage, error) {
	spec, err := lookupSpec(collection)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	prefix := flatKey(spec.Name, "")
	keys := make([]string, 0)
	for k := range b.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	records := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		records = append(records, b.entries[k])
	}
	return records, nil
}

func (b *fileBackend) Get(_ context.Context, collection, id string) (json.RawMessage, error) {
	spec, err := lookupSpec(collection)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	record, ok := b.entries[flatKey(spec.Name, id)]
	if !ok {
		return nil, nil
	}
	return record, nil
}

// GetByIndex is unavailable in degraded mode: the flat store has no
// query capability beyond exact-key lookup. Callers get a descriptive
// error rather than silently empty results.
func (b *fileBackend) GetByIndex(_ context.Context, collection, index string, _ any) ([]json.RawMessage, error) {
	spec, err := lookupSpec(collection)
	if err != nil {
		return nil, err
	}
	if _, err := spec.lookupIndex(index); err != nil {
		return nil, err
	}
	return nil, apperr.Newf(apperr.ErrIndexUnavailable,
		"index %q on collection %q is unavailable in degraded mode", index, collection)
}

func (b *fileBackend) Put(_ context.Context, collection string, record json.RawMessage) (string, error) {
	spec, err := lookupSpec(collection)
	if err != nil {
		return "", err
	}
	id, _, err := decodeRecord(spec, record)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := flatKey(spec.Name, id)
	previous, existed := b.entries[key]
	b.entries[key] = record
	if err := b.save(); err != nil {
		// Roll the map back so memory matches disk.
		if existed {
			b.entries[key] = previous
		} else {
			delete(b.entries, key)
		}
		logging.Error("fallback store write failed", err,
			map[string]any{"collection": collection, "operation": "put", "id": id})
		return "", err
	}
	return id, nil
}

func (b *fileBackend) Delete(_ context.Context, collection, id string) error {
	spec, err := lookupSpec(collection)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := flatKey(spec.Name, id)
	previous, existed := b.entries[key]
	if !existed {
		return nil
	}
	delete(b.entries, key)
	if err := b.save(); err != nil {
		b.entries[key] = previous
		logging.Error("fallback store write failed", err,
			map[string]any{"collection": collection, "operation": "delete", "id": id})
		return err
	}
	return nil
}

func (b *fileBackend) Clear(_ context.Context, collection string) error {
	spec, err := lookupSpec(collection)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	prefix := flatKey(spec.Name, "")
	removed := make(map[string]json.RawMessage)
	for k, v := range b.entries {
		if strings.HasPrefix(k, prefix) {
			removed[k] = v
			delete(b.entries, k)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := b.save(); err != nil {
		for k, v := range removed {
			b.entries[k] = v
		}
		logging.Error("fallback store write failed", err,
			map[string]any{"collection": collection, "operation": "clear"})
		return err
	}
	return nil
}

func (b *fileBackend) Degraded() bool {
	return true
}

func (b *fileBackend) Close() error {
	return nil
}

// String identifies the backend in logs.
func (b *fileBackend) String() string {
	return fmt.Sprintf("fileBackend(%s)", b.path)
}
