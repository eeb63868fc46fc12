// Integration tests for the offline persistence flow: local edits keep
// working without connectivity and queued mutations replay when it returns.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/tknelms/carkeeper/backend/internal/models"
	"github.com/tknelms/carkeeper/backend/internal/queue"
	"github.com/tknelms/carkeeper/backend/internal/reports"
	"github.com/tknelms/carkeeper/backend/internal/store"
	"github.com/tknelms/carkeeper/backend/internal/transfer"
)

// TestOfflineEditFlow exercises the full offline story: edit locally while
// offline, queue the mutations, then drain them against the remote once
// connectivity returns.
func TestOfflineEditFlow(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()

	s, err := store.Open(dataDir)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	q := queue.New(s)

	// Go offline and make edits locally.
	if err := s.SetOffline(ctx, true); err != nil {
		t.Fatalf("Failed to set offline: %v", err)
	}

	if _, err := s.Put(ctx, store.Vehicles, json.RawMessage(`{"id":"v1","name":"Civic","status":"active"}`)); err != nil {
		t.Fatalf("Failed to put vehicle: %v", err)
	}
	if _, err := s.Put(ctx, store.Todos, json.RawMessage(`{"id":"t1","vehicleId":"v1","title":"Oil change","status":"pending"}`)); err != nil {
		t.Fatalf("Failed to put todo: %v", err)
	}

	// Queue the mutations for later replay.
	if _, err := q.Enqueue(ctx, "PUT", "/api/vehicles/v1", json.RawMessage(`{"id":"v1","name":"Civic"}`)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	if _, err := q.Enqueue(ctx, "PUT", "/api/todos/t1", json.RawMessage(`{"id":"t1","title":"Oil change"}`)); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}

	// Local reads keep working, including by index.
	todos, err := s.GetByIndex(ctx, store.Todos, "vehicleId", "v1")
	if err != nil {
		t.Fatalf("Index query failed while offline: %v", err)
	}
	if len(todos) != 1 {
		t.Fatalf("Expected 1 todo for v1, got %d", len(todos))
	}

	// Connectivity returns: drain against the remote API.
	var mu sync.Mutex
	var replayedPaths []string
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		replayedPaths = append(replayedPaths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer remote.Close()

	if err := s.SetOffline(ctx, false); err != nil {
		t.Fatalf("Failed to clear offline: %v", err)
	}

	replayed, err := q.Drain(ctx, queue.HTTPReplayer(remote.Client(), remote.URL))
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if replayed != 2 {
		t.Errorf("Expected 2 operations replayed, got %d", replayed)
	}
	if len(replayedPaths) != 2 || replayedPaths[0] != "/api/vehicles/v1" || replayedPaths[1] != "/api/todos/t1" {
		t.Errorf("Expected FIFO replay, got %v", replayedPaths)
	}

	remaining, _ := q.ListPending(ctx)
	if len(remaining) != 0 {
		t.Errorf("Expected empty queue after drain, got %d", len(remaining))
	}
}

// TestDegradedModeRecovery exercises the fallback path: run degraded
// while the engine is unusable, then migrate the flat-file records into
// the structured store once it recovers.
func TestDegradedModeRecovery(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()

	// Break the engine by occupying its path with a directory.
	blockedPath := filepath.Join(dataDir, "carkeeper.db")
	if err := os.Mkdir(blockedPath, 0o755); err != nil {
		t.Fatalf("Failed to block engine path: %v", err)
	}

	degraded, err := store.Open(dataDir)
	if err != nil {
		t.Fatalf("Open should fall back, got: %v", err)
	}
	if !degraded.Degraded() {
		t.Fatal("Expected degraded store")
	}

	// Writes land in the flat file; index queries are unavailable.
	if _, err := degraded.Put(ctx, store.Vehicles, json.RawMessage(`{"id":"v1","name":"Civic","status":"active"}`)); err != nil {
		t.Fatalf("Degraded put failed: %v", err)
	}
	if _, err := degraded.GetByIndex(ctx, store.Vehicles, "status", "active"); err == nil {
		t.Error("Expected index query to fail in degraded mode")
	}
	degraded.Close()

	// The engine recovers; migrate the flat-file records over.
	if err := os.Remove(blockedPath); err != nil {
		t.Fatalf("Failed to unblock engine path: %v", err)
	}
	healthy, err := store.Open(dataDir)
	if err != nil {
		t.Fatalf("Open after recovery failed: %v", err)
	}
	defer healthy.Close()
	if healthy.Degraded() {
		t.Fatal("Expected structured engine after recovery")
	}

	svc := transfer.New(healthy, store.FallbackPath(dataDir))
	if err := svc.ImportLegacy(ctx); err != nil {
		t.Fatalf("Legacy migration failed: %v", err)
	}

	// The migrated record is fully structured, indexes included.
	active, err := healthy.GetByIndex(ctx, store.Vehicles, "status", "active")
	if err != nil {
		t.Fatalf("Index query after migration failed: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("Expected migrated vehicle indexed, got %d", len(active))
	}
}

// TestSnapshotRoundTrip exercises export-shaped data through import and a
// scheduled report generated from it.
func TestSnapshotRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()

	s, err := store.Open(dataDir)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	svc := transfer.New(s, store.FallbackPath(dataDir))
	snapshot := `{
		"vehicles": [{"id": "v1", "name": "Civic", "status": "active"}],
		"todos": [
			{"id": "t1", "vehicleId": "v1", "title": "Oil change", "status": "done", "costCents": 4500},
			{"id": "t2", "vehicleId": "v1", "title": "Rotate tires", "status": "pending"}
		]
	}`
	if err := svc.ImportJSON(ctx, strings.NewReader(snapshot)); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	rs := reports.New(s)
	if err := rs.GenerateScheduled(ctx, models.ReportSchedule{ID: "s1"}); err != nil {
		t.Fatalf("Report generation failed: %v", err)
	}

	records, err := s.GetAll(ctx, store.Reports)
	if err != nil {
		t.Fatalf("Failed to list reports: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 generated report, got %d", len(records))
	}

	var report struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(records[0], &report); err != nil {
		t.Fatalf("Report record is not valid JSON: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(report.Data, &rows); err != nil {
		t.Fatalf("Report data is not tabular: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected both todos in the report, got %d rows", len(rows))
	}
}
