// Package handlers provides the localhost bridge API the UI shells call.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tknelms/carkeeper/backend/internal/transfer"
)

// TransferHandler exposes snapshot import, legacy migration and
// collection merge.
type TransferHandler struct {
	transfer *transfer.Service
	events   Broadcaster
}

// NewTransferHandler creates a TransferHandler.
func NewTransferHandler(t *transfer.Service, events Broadcaster) *TransferHandler {
	return &TransferHandler{transfer: t, events: events}
}

// Import handles POST /api/import: the request body is the JSON
// snapshot.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := h.transfer.ImportJSON(r.Context(), r.Body); err != nil {
		writeError(w, err)
		return
	}
	h.events.Broadcast(EventImportDone, nil)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// ImportLegacy handles POST /api/import/legacy: one-time migration off
// the degraded flat key-value store.
func (h *TransferHandler) ImportLegacy(w http.ResponseWriter, r *http.Request) {
	if err := h.transfer.ImportLegacy(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.events.Broadcast(EventImportDone, map[string]any{"source": "legacy"})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Merge handles POST /api/merge.
func (h *TransferHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	merged, err := h.transfer.MergeCollections(r.Context(), req.Source, req.Target)
	if err != nil {
		writeError(w, err)
		return
	}
	h.events.Broadcast(EventMergeDone, map[string]any{
		"source": req.Source, "target": req.Target, "merged": merged,
	})
	writeJSON(w, http.StatusOK, map[string]any{"merged": merged})
}
