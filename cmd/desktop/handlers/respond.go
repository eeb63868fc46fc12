// Package handlers provides the localhost bridge API the UI shells call.
package handlers

import (
	"encoding/json"
	"net/http"

	apperr "github.com/tknelms/carkeeper/backend/internal/errors"
)

// writeJSON writes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps an application error onto an HTTP status and a JSON
// body carrying the stable error code.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.CodeOf(err) {
	case apperr.ErrValidation, apperr.ErrUnknownCollection, apperr.ErrUnknownIndex,
		apperr.ErrScheduleInvalid, apperr.ErrImportFailed:
		status = http.StatusBadRequest
	case apperr.ErrNotFound:
		status = http.StatusNotFound
	case apperr.ErrIndexUnavailable, apperr.ErrEngineUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"error": err.Error(),
		"code":  string(apperr.CodeOf(err)),
	})
}
