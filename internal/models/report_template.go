// Package models provides data model definitions for CarKeeper Core.
package models

// ReportTemplate describes how a report of a given type is assembled.
type ReportTemplate struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type,omitempty"`
	Sections  []string `json:"sections,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
}
