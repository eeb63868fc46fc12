// Package handlers provides the localhost bridge API the UI shells call.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tknelms/carkeeper/backend/internal/store"
)

// CollectionHandler exposes the collection access layer over HTTP.
type CollectionHandler struct {
	store *store.Store
}

// NewCollectionHandler creates a CollectionHandler.
func NewCollectionHandler(s *store.Store) *CollectionHandler {
	return &CollectionHandler{store: s}
}

// List handles GET /api/collections/{name}. With ?index= and ?value= it
// queries the named secondary index instead of returning everything.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var (
		records []json.RawMessage
		err     error
	)
	if index := r.URL.Query().Get("index"); index != "" {
		records, err = h.store.GetByIndex(r.Context(), name, index, r.URL.Query().Get("value"))
	} else {
		records, err = h.store.GetAll(r.Context(), name)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

// Get handles GET /api/collections/{name}/{id}.
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	record, err := h.store.Get(r.Context(), vars["name"], vars["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if record == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "record not found"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(record)
}

// Put handles PUT /api/collections/{name}: upsert of the request body.
func (h *CollectionHandler) Put(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "reading request body"})
		return
	}
	id, err := h.store.Put(r.Context(), name, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

// Delete handles DELETE /api/collections/{name}/{id}. Deleting an
// absent record succeeds.
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.Delete(r.Context(), vars["name"], vars["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles POST /api/collections/{name}/clear.
func (h *CollectionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.store.Clear(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
