// Package handlers provides the localhost bridge API the UI shells call.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tknelms/carkeeper/backend/internal/store"
)

// OfflineHandler exposes the offline-mode flag.
type OfflineHandler struct {
	store  *store.Store
	events Broadcaster
}

// NewOfflineHandler creates an OfflineHandler.
func NewOfflineHandler(s *store.Store, events Broadcaster) *OfflineHandler {
	return &OfflineHandler{store: s, events: events}
}

// Get handles GET /api/offline.
func (h *OfflineHandler) Get(w http.ResponseWriter, r *http.Request) {
	isOffline, err := h.store.Offline(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"isOffline": isOffline})
}

// Set handles PUT /api/offline.
func (h *OfflineHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsOffline bool `json:"isOffline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if err := h.store.SetOffline(r.Context(), req.IsOffline); err != nil {
		writeError(w, err)
		return
	}
	h.events.Broadcast(EventOfflineChanged, map[string]any{"isOffline": req.IsOffline})
	writeJSON(w, http.StatusOK, map[string]any{"isOffline": req.IsOffline})
}
