// Package store tests for the degraded flat key-value fallback.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
)

// newFallbackStore opens a store forced onto the flat key-value backend.
func newFallbackStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), fallbackFileName)
	backend, err := openFile(path)
	if err != nil {
		t.Fatalf("openFile() failed: %v", err)
	}
	return &Store{backend: backend}, path
}

// TestFallback_putGet verifies records round-trip through the flat store.
func TestFallback_putGet(t *testing.T) {
	s, _ := newFallbackStore(t)
	ctx := context.Background()

	if !s.Degraded() {
		t.Fatal("Expected fallback store to report degraded")
	}

	id, err := s.Put(ctx, Vehicles, vehicleRecord("v1", "Civic", "active"))
	if err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if id != "v1" {
		t.Errorf("Expected id v1, got %s", id)
	}

	record, err := s.Get(ctx, Vehicles, "v1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if record == nil {
		t.Fatal("Expected record, got nil")
	}

	// Absent ids report nil, nil just like the structured engine.
	record, err = s.Get(ctx, Vehicles, "missing")
	if err != nil {
		t.Fatalf("Get() on absent id should not error, got: %v", err)
	}
	if record != nil {
		t.Error("Expected nil record for absent id")
	}
}

// TestFallback_persistence verifies writes survive reopening the file.
func TestFallback_persistence(t *testing.T) {
	s, path := newFallbackStore(t)
	ctx := context.Background()

	if _, err := s.Put(ctx, Vehicles, vehicleRecord("v1", "Civic", "active")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	// Reopen from disk.
	backend, err := openFile(path)
	if err != nil {
		t.Fatalf("Reopening fallback file failed: %v", err)
	}
	reopened := &Store{backend: backend}

	record, err := reopened.Get(ctx, Vehicles, "v1")
	if err != nil {
		t.Fatalf("Get() after reopen failed: %v", err)
	}
	if record == nil {
		t.Error("Expected record to survive reopen")
	}

	// The on-disk map uses prefixed flat keys.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading fallback file failed: %v", err)
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatalf("Fallback file is not a JSON object: %v", err)
	}
	if _, ok := entries["carkeeper:vehicles:v1"]; !ok {
		t.Errorf("Expected flat key carkeeper:vehicles:v1, got keys %v", keysOf(entries))
	}
}

func keysOf(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// TestFallback_getByIndex verifies index queries are reported unavailable
// rather than silently empty.
func TestFallback_getByIndex(t *testing.T) {
	s, _ := newFallbackStore(t)
	ctx := context.Background()

	s.Put(ctx, Vehicles, vehicleRecord("v1", "Civic", "active"))

	_, err := s.GetByIndex(ctx, Vehicles, "status", "active")
	if err == nil {
		t.Fatal("GetByIndex() in degraded mode should fail")
	}
	if !apperr.Is(err, apperr.ErrIndexUnavailable) {
		t.Errorf("Expected index-unavailable error, got: %v", err)
	}

	// Unknown collection and index names still fail fast with their own codes.
	if _, err := s.GetByIndex(ctx, "nonsense", "status", "x"); !apperr.Is(err, apperr.ErrUnknownCollection) {
		t.Errorf("Expected unknown-collection error, got: %v", err)
	}
	if _, err := s.GetByIndex(ctx, Vehicles, "color", "x"); !apperr.Is(err, apperr.ErrUnknownIndex) {
		t.Errorf("Expected unknown-index error, got: %v", err)
	}
}

// TestFallback_getAll verifies per-collection listing with deterministic order.
func TestFallback_getAll(t *testing.T) {
	s, _ := newFallbackStore(t)
	ctx := context.Background()

	s.Put(ctx, Vehicles, vehicleRecord("v2", "Accord", "active"))
	s.Put(ctx, Vehicles, vehicleRecord("v1", "Civic", "active"))
	s.Put(ctx, Todos, json.RawMessage(`{"id":"t1","title":"Oil change"}`))

	records, err := s.GetAll(ctx, Vehicles)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 vehicles, got %d", len(records))
	}

	// Keys sort lexicographically, so v1 comes first.
	var first map[string]any
	json.Unmarshal(records[0], &first)
	if first["id"] != "v1" {
		t.Errorf("Expected v1 first, got %v", first["id"])
	}
}

// TestFallback_deleteClear verifies delete and clear semantics match the
// structured engine.
func TestFallback_deleteClear(t *testing.T) {
	s, _ := newFallbackStore(t)
	ctx := context.Background()

	s.Put(ctx, Vehicles, vehicleRecord("v1", "Civic", "active"))
	s.Put(ctx, Vehicles, vehicleRecord("v2", "Accord", "active"))
	s.Put(ctx, Todos, json.RawMessage(`{"id":"t1","title":"Oil change"}`))

	if err := s.Delete(ctx, Vehicles, "v1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := s.Delete(ctx, Vehicles, "v1"); err != nil {
		t.Errorf("Delete() of absent id should not error, got: %v", err)
	}

	if err := s.Clear(ctx, Vehicles); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	vehicles, _ := s.GetAll(ctx, Vehicles)
	if len(vehicles) != 0 {
		t.Errorf("Expected empty vehicles, got %d", len(vehicles))
	}
	todos, _ := s.GetAll(ctx, Todos)
	if len(todos) != 1 {
		t.Errorf("Expected todos untouched, got %d", len(todos))
	}
}

// TestFallback_offlineFlag verifies the offline singleton works in
// degraded mode too.
func TestFallback_offlineFlag(t *testing.T) {
	s, _ := newFallbackStore(t)
	ctx := context.Background()

	if err := s.SetOffline(ctx, true); err != nil {
		t.Fatalf("SetOffline() failed: %v", err)
	}
	offline, err := s.Offline(ctx)
	if err != nil {
		t.Fatalf("Offline() failed: %v", err)
	}
	if !offline {
		t.Error("Expected offline flag to be set")
	}
}

// TestOpenFallback_missingFile verifies opening a non-existent fallback
// file yields an empty store rather than an error.
func TestOpenFallback_missingFile(t *testing.T) {
	backend, err := OpenFallback(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("OpenFallback() on missing file failed: %v", err)
	}
	records, err := backend.GetAll(context.Background(), Vehicles)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty store, got %d records", len(records))
	}
}
