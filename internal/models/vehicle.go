// Package models provides data model definitions for CarKeeper Core.
package models

// Vehicle represents a vehicle tracked by the user.
type Vehicle struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	Year         int    `json:"year,omitempty"`
	LicensePlate string `json:"licensePlate,omitempty"`
	Mileage      int    `json:"mileage,omitempty"`
	Status       string `json:"status,omitempty"` // active, sold, in_service
}

// VehicleStatus values stored in the indexed status field.
const (
	VehicleStatusActive    = "active"
	VehicleStatusSold      = "sold"
	VehicleStatusInService = "in_service"
)
