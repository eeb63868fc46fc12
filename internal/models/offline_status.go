// Package models provides data model definitions for CarKeeper Core.
package models

// OfflineStatusID is the fixed identifier of the singleton record in the
// offlineMode collection.
const OfflineStatusID = "offlineStatus"

// OfflineStatus is the singleton record tracking whether the application
// considers itself offline. It is mutated exclusively through the store's
// SetOffline setter.
type OfflineStatus struct {
	ID        string `json:"id"`
	IsOffline bool   `json:"isOffline"`
	Timestamp string `json:"timestamp"`
}
