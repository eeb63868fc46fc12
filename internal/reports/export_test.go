// Package reports provides unit tests for report export rendering.
package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
	"github.com/tknelms/carkeeper/backend/internal/models"
)

func exportFixture(t *testing.T) *Service {
	t.Helper()
	svc, _ := newTestService(t)
	_, err := svc.SaveReport(context.Background(), models.Report{
		ID:          "r1",
		Title:       "March maintenance",
		Type:        models.ReportTypeMaintenanceHistory,
		GeneratedAt: "2026-03-01T09:00:00Z",
		Data:        json.RawMessage(`[{"vehicle":"Civic","title":"Oil change","costCents":4500},{"vehicle":"Accord","title":"Rotate tires"}]`),
	})
	if err != nil {
		t.Fatalf("SaveReport() failed: %v", err)
	}
	return svc
}

// TestExport_json verifies the JSON document shape.
func TestExport_json(t *testing.T) {
	svc := exportFixture(t)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), "r1", FormatJSON, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
	if doc["title"] != "March maintenance" {
		t.Errorf("Expected title in document, got %v", doc["title"])
	}
	if doc["generatedAt"] != "2026-03-01T09:00:00Z" {
		t.Errorf("Expected generatedAt in document, got %v", doc["generatedAt"])
	}
	rows, ok := doc["data"].([]any)
	if !ok || len(rows) != 2 {
		t.Errorf("Expected 2 data rows, got %v", doc["data"])
	}
}

// TestExport_csv verifies delimited output with the sorted header union.
func TestExport_csv(t *testing.T) {
	svc := exportFixture(t)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), "r1", FormatCSV, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "costCents,title,vehicle" {
		t.Errorf("Expected sorted header union, got %s", lines[0])
	}
	if lines[1] != "4500,Oil change,Civic" {
		t.Errorf("Unexpected first row: %s", lines[1])
	}
	// The sparse row renders an empty cost cell.
	if lines[2] != ",Rotate tires,Accord" {
		t.Errorf("Unexpected sparse row: %s", lines[2])
	}
}

// TestExport_tsv verifies the tab delimiter.
func TestExport_tsv(t *testing.T) {
	svc := exportFixture(t)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), "r1", FormatTSV, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "costCents\ttitle\tvehicle" {
		t.Errorf("Expected tab-delimited header, got %q", lines[0])
	}
}

// TestExport_errors verifies missing reports, unknown formats and
// non-tabular data are rejected.
func TestExport_errors(t *testing.T) {
	svc := exportFixture(t)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := svc.Export(ctx, "missing", FormatJSON, &buf); !apperr.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected not-found error, got: %v", err)
	}
	if err := svc.Export(ctx, "r1", Format("xml"), &buf); !apperr.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error for unknown format, got: %v", err)
	}

	// Non-array data cannot render as rows.
	svc.SaveReport(ctx, models.Report{ID: "r2", Title: "Scalar", Data: json.RawMessage(`{"note":"not rows"}`)})
	if err := svc.Export(ctx, "r2", FormatCSV, &buf); !apperr.Is(err, apperr.ErrExportFailed) {
		t.Errorf("Expected export-failed error, got: %v", err)
	}
}
