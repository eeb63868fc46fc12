// Package handlers provides the localhost bridge API the UI shells call.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tknelms/carkeeper/backend/internal/queue"
)

// Broadcaster pushes events to connected UI clients. The desktop
// WebSocket hub implements it.
type Broadcaster interface {
	Broadcast(event string, data map[string]any)
}

// Bridge event types.
const (
	EventQueueEnqueued  = "queue.enqueued"
	EventQueueDrained   = "queue.drained"
	EventOfflineChanged = "offline.changed"
	EventImportDone     = "import.completed"
	EventMergeDone      = "merge.completed"
)

// QueueHandler exposes the pending-operation queue.
type QueueHandler struct {
	queue  *queue.Service
	replay queue.ReplayFunc
	events Broadcaster
}

// NewQueueHandler creates a QueueHandler. replay is used by Drain.
func NewQueueHandler(q *queue.Service, replay queue.ReplayFunc, events Broadcaster) *QueueHandler {
	return &QueueHandler{queue: q, replay: replay, events: events}
}

// Enqueue handles POST /api/queue.
func (h *QueueHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string          `json:"method"`
		URL    string          `json:"url"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	id, err := h.queue.Enqueue(r.Context(), req.Method, req.URL, req.Data)
	if err != nil {
		writeError(w, err)
		return
	}
	h.events.Broadcast(EventQueueEnqueued, map[string]any{"id": id, "method": req.Method, "url": req.URL})
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// List handles GET /api/queue: all pending operations, oldest first.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	ops, err := h.queue.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	queue.SortByTimestamp(ops)
	writeJSON(w, http.StatusOK, map[string]any{"operations": ops, "count": len(ops)})
}

// Remove handles POST /api/queue/remove: best-effort deletion of the
// listed operation ids after the caller confirmed their replay.
func (h *QueueHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if err := h.queue.Remove(r.Context(), req.IDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Drain handles POST /api/queue/drain: replays queued operations against
// the remote API and reports how many made it.
func (h *QueueHandler) Drain(w http.ResponseWriter, r *http.Request) {
	replayed, err := h.queue.Drain(r.Context(), h.replay)
	h.events.Broadcast(EventQueueDrained, map[string]any{"replayed": replayed})
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"replayed": replayed, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"replayed": replayed})
}
