// Package models provides data model definitions for CarKeeper Core.
package models

import "encoding/json"

// Report represents a generated report cached for offline viewing.
// Data holds the report body as produced by the generator, typically an
// array of row objects.
type Report struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Type        string          `json:"type,omitempty"` // maintenance_history, cost_summary
	GeneratedAt string          `json:"generatedAt,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Report type values.
const (
	ReportTypeMaintenanceHistory = "maintenance_history"
	ReportTypeCostSummary        = "cost_summary"
)
