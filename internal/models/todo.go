// Package models provides data model definitions for CarKeeper Core.
package models

// Todo represents a maintenance item for a vehicle.
type Todo struct {
	ID          string `json:"id"`
	VehicleID   string `json:"vehicleId,omitempty"`
	Title       string `json:"title"`
	Notes       string `json:"notes,omitempty"`
	Status      string `json:"status,omitempty"` // pending, done, overdue
	DueDate     string `json:"dueDate,omitempty"` // ISO-8601 date
	DueMileage  int    `json:"dueMileage,omitempty"`
	CostCents   int    `json:"costCents,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// Todo status values stored in the indexed status field.
const (
	TodoStatusPending = "pending"
	TodoStatusDone    = "done"
	TodoStatusOverdue = "overdue"
)
