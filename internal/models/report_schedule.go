// Package models provides data model definitions for CarKeeper Core.
package models

// ReportSchedule describes a recurring report generation.
//
// Frequency is one of daily, weekly or monthly. Hour is the hour of day
// the report should run. DayOfWeek (0=Sunday..6=Saturday, default Monday)
// applies to weekly schedules; DayOfMonth (default 1) to monthly ones.
// NextRun and LastRun are RFC 3339 timestamps maintained by the report
// service and the schedule runner.
type ReportSchedule struct {
	ID         string `json:"id"`
	TemplateID string `json:"templateId,omitempty"`
	Frequency  string `json:"frequency"`
	Hour       int    `json:"hour"`
	DayOfWeek  *int   `json:"dayOfWeek,omitempty"`
	DayOfMonth *int   `json:"dayOfMonth,omitempty"`
	Enabled    bool   `json:"enabled"`
	CreatedAt  string `json:"createdAt,omitempty"`
	NextRun    string `json:"nextRun,omitempty"`
	LastRun    string `json:"lastRun,omitempty"`
}
