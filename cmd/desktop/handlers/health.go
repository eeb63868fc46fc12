// Package handlers provides the localhost bridge API the UI shells call.
package handlers

import (
	"net/http"

	"github.com/tknelms/carkeeper/backend/internal/store"
)

// Health reports service liveness and whether the store is running
// degraded.
func Health(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"service":  "carkeeper-desktop",
			"degraded": s.Degraded(),
		})
	}
}
