// Package models provides data model definitions for CarKeeper Core.
package models

import "encoding/json"

// UserSetting is a single user preference. Settings are keyed by the
// Key field rather than an id.
type UserSetting struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
}
