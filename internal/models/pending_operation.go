// Package models provides data model definitions for CarKeeper Core.
package models

import "encoding/json"

// PendingOperation is a network mutation recorded while the application
// was offline, to be replayed once connectivity returns. Timestamp is an
// RFC 3339 string; retrieval order is unspecified, so replayers sort by
// timestamp themselves.
type PendingOperation struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	URL       string          `json:"url"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp"`
}
