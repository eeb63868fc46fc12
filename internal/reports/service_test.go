// Package reports provides unit tests for the report service.
package reports

import (
	"context"
	"encoding/json"
	"testing"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
	"github.com/tknelms/carkeeper/backend/internal/models"
	"github.com/tknelms/carkeeper/backend/internal/store"
	"github.com/tknelms/carkeeper/backend/internal/uuid"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func intPtr(v int) *int { return &v }

// TestSaveReport verifies id and GeneratedAt are stamped when absent and
// preserved when present.
func TestSaveReport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.SaveReport(ctx, models.Report{Title: "March summary", Type: models.ReportTypeCostSummary})
	if err != nil {
		t.Fatalf("SaveReport() failed: %v", err)
	}
	if !uuid.IsValid(id) {
		t.Errorf("Expected generated UUID, got %s", id)
	}

	got, err := svc.reports.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.GeneratedAt == "" {
		t.Error("Expected GeneratedAt stamped")
	}

	// Explicit values survive.
	id2, err := svc.SaveReport(ctx, models.Report{
		ID: "r-fixed", Title: "Fixed", GeneratedAt: "2026-01-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("SaveReport() failed: %v", err)
	}
	if id2 != "r-fixed" {
		t.Errorf("Expected explicit id preserved, got %s", id2)
	}
	got, _ = svc.reports.Get(ctx, "r-fixed")
	if got.GeneratedAt != "2026-01-01T00:00:00Z" {
		t.Errorf("Expected explicit GeneratedAt preserved, got %s", got.GeneratedAt)
	}
}

// TestSaveTemplate verifies id and CreatedAt stamping.
func TestSaveTemplate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.SaveTemplate(ctx, models.ReportTemplate{Name: "Maintenance history"})
	if err != nil {
		t.Fatalf("SaveTemplate() failed: %v", err)
	}
	got, err := svc.templates.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.CreatedAt == "" {
		t.Error("Expected CreatedAt stamped")
	}
}

// TestSaveSchedule verifies NextRun is computed on save and an invalid
// recurrence is rejected before writing.
func TestSaveSchedule(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.SaveSchedule(ctx, models.ReportSchedule{
		Frequency: "weekly",
		Hour:      9,
		DayOfWeek: intPtr(1),
		Enabled:   true,
	})
	if err != nil {
		t.Fatalf("SaveSchedule() failed: %v", err)
	}

	got, err := svc.schedules.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.NextRun == "" {
		t.Error("Expected NextRun computed on save")
	}
	if got.CreatedAt == "" {
		t.Error("Expected CreatedAt stamped")
	}

	// Invalid recurrence fails before any write.
	_, err = svc.SaveSchedule(ctx, models.ReportSchedule{Frequency: "daily", Hour: 25})
	if !apperr.Is(err, apperr.ErrScheduleInvalid) {
		t.Errorf("Expected schedule-invalid error, got: %v", err)
	}
	all, _ := svc.schedules.All(ctx)
	if len(all) != 1 {
		t.Errorf("Expected rejected schedule not persisted, got %d schedules", len(all))
	}
}

// TestGenerateScheduled verifies a report is assembled from vehicles and
// todos using the schedule's template.
func TestGenerateScheduled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.vehicles.Put(ctx, models.Vehicle{ID: "v1", Name: "Civic"})
	svc.todos.Put(ctx, models.Todo{
		ID: "t1", VehicleID: "v1", Title: "Oil change",
		Status: models.TodoStatusDone, CostCents: 4500,
	})
	svc.todos.Put(ctx, models.Todo{
		ID: "t2", VehicleID: "v1", Title: "Check wipers",
		Status: models.TodoStatusPending,
	})

	tmplID, err := svc.SaveTemplate(ctx, models.ReportTemplate{
		Name: "Monthly costs", Type: models.ReportTypeCostSummary,
	})
	if err != nil {
		t.Fatalf("SaveTemplate() failed: %v", err)
	}

	err = svc.GenerateScheduled(ctx, models.ReportSchedule{ID: "s1", TemplateID: tmplID})
	if err != nil {
		t.Fatalf("GenerateScheduled() failed: %v", err)
	}

	all, err := svc.reports.All(ctx)
	if err != nil {
		t.Fatalf("All() failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Expected 1 generated report, got %d", len(all))
	}

	report := all[0]
	if report.Title != "Monthly costs" {
		t.Errorf("Expected template name as title, got %s", report.Title)
	}
	if report.Type != models.ReportTypeCostSummary {
		t.Errorf("Expected cost summary type, got %s", report.Type)
	}

	// Cost summaries leave out zero-cost items.
	var rows []map[string]any
	if err := json.Unmarshal(report.Data, &rows); err != nil {
		t.Fatalf("Report data is not valid JSON: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 cost row, got %d", len(rows))
	}
	if rows[0]["vehicle"] != "Civic" || rows[0]["title"] != "Oil change" {
		t.Errorf("Unexpected row: %v", rows[0])
	}
}

// TestGenerateScheduled_missingTemplate verifies a dangling template
// reference fails with not-found.
func TestGenerateScheduled_missingTemplate(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.GenerateScheduled(context.Background(), models.ReportSchedule{
		ID: "s1", TemplateID: "missing",
	})
	if !apperr.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected not-found error, got: %v", err)
	}
}

// TestGenerateScheduled_noTemplate verifies a template-less schedule
// still produces a maintenance-history report.
func TestGenerateScheduled_noTemplate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.todos.Put(ctx, models.Todo{ID: "t1", Title: "Oil change", Status: models.TodoStatusPending})

	if err := svc.GenerateScheduled(ctx, models.ReportSchedule{ID: "s1"}); err != nil {
		t.Fatalf("GenerateScheduled() failed: %v", err)
	}

	all, _ := svc.reports.All(ctx)
	if len(all) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(all))
	}
	if all[0].Type != models.ReportTypeMaintenanceHistory {
		t.Errorf("Expected maintenance history type, got %s", all[0].Type)
	}
}
