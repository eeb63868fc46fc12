// Package store provides the collection access layer over whichever
// backend was opened.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
	"github.com/tknelms/carkeeper/backend/internal/logging"
	"github.com/tknelms/carkeeper/backend/internal/models"
)

// Default file names under the data directory.
const (
	dbFileName       = "carkeeper.db"
	fallbackFileName = "carkeeper-fallback.json"
)

// Store is the collection access layer. It is constructed explicitly via
// Open and passed to consumers; there is no implicit global handle.
type Store struct {
	backend Backend
}

// Open opens the structured store under dataDir. If the SQLite engine
// cannot be opened the store falls back, once, to the flat key-value
// file store at reduced functionality (no secondary-index queries).
// Call sites are backend-agnostic after this point.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.ErrEngineUnavailable, "creating data directory", err)
	}

	backend, err := openSQL(filepath.Join(dataDir, dbFileName))
	if err == nil {
		return &Store{backend: backend}, nil
	}

	logging.Warn("structured engine unavailable, falling back to degraded key-value store",
		map[string]any{"error": err.Error()})

	fb, ferr := openFile(FallbackPath(dataDir))
	if ferr != nil {
		// Neither backend usable; the original engine error is the
		// interesting one.
		return nil, err
	}
	return &Store{backend: fb}, nil
}

// FallbackPath returns the location of the degraded-mode key-value file
// under dataDir. Exposed so the legacy-import path can scan it even when
// the structured engine is healthy.
func FallbackPath(dataDir string) string {
	return filepath.Join(dataDir, fallbackFileName)
}

// OpenFallback opens the flat key-value store directly. Used by the
// legacy migration to read records written while degraded.
func OpenFallback(path string) (Backend, error) {
	return openFile(path)
}

// Degraded reports whether the store is running on the flat key-value
// fallback.
func (s *Store) Degraded() bool {
	return s.backend.Degraded()
}

// Close releases the underlying engine.
func (s *Store) Close() error {
	return s.backend.Close()
}

// GetAll returns every record of a collection in engine-native order.
func (s *Store) GetAll(ctx context.Context, collection string) ([]json.RawMessage, error) {
	return s.backend.GetAll(ctx, collection)
}

// Get returns the record with the given identifier, or nil when absent.
// Absence is not an error.
func (s *Store) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	return s.backend.Get(ctx, collection, id)
}

// GetByIndex returns all records whose indexed field equals value.
func (s *Store) GetByIndex(ctx context.Context, collection, index string, value any) ([]json.RawMessage, error) {
	return s.backend.GetByIndex(ctx, collection, index, value)
}

// Put upserts a record by its identifier field and returns the
// identifier used. Each put commits in its own transaction.
func (s *Store) Put(ctx context.Context, collection string, record json.RawMessage) (string, error) {
	return s.backend.Put(ctx, collection, record)
}

// Delete removes a record. Deleting an absent identifier is a no-op.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.backend.Delete(ctx, collection, id)
}

// Clear removes every record in a collection.
func (s *Store) Clear(ctx context.Context, collection string) error {
	return s.backend.Clear(ctx, collection)
}

// SetOffline records the offline-mode flag. This is the only mutator of
// the offlineMode singleton.
func (s *Store) SetOffline(ctx context.Context, isOffline bool) error {
	status := models.OfflineStatus{
		ID:        models.OfflineStatusID,
		IsOffline: isOffline,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	record, err := json.Marshal(status)
	if err != nil {
		return apperr.Wrap(apperr.ErrInternal, "encoding offline status", err)
	}
	if _, err := s.backend.Put(ctx, OfflineMode, record); err != nil {
		return err
	}
	logging.Info("offline mode updated", map[string]any{"isOffline": isOffline})
	return nil
}

// Offline reads the offline-mode flag. A store that has never been
// toggled reports online.
func (s *Store) Offline(ctx context.Context) (bool, error) {
	record, err := s.backend.Get(ctx, OfflineMode, models.OfflineStatusID)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	var status models.OfflineStatus
	if err := json.Unmarshal(record, &status); err != nil {
		return false, apperr.Wrap(apperr.ErrInternal, "decoding offline status", err)
	}
	return status.IsOffline, nil
}
