// Package handlers provides the localhost bridge API the UI shells call.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tknelms/carkeeper/backend/internal/models"
	"github.com/tknelms/carkeeper/backend/internal/reports"
)

// ReportHandler exposes report, template and schedule persistence plus
// report export.
type ReportHandler struct {
	reports *reports.Service
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(r *reports.Service) *ReportHandler {
	return &ReportHandler{reports: r}
}

// SaveReport handles POST /api/reports.
func (h *ReportHandler) SaveReport(w http.ResponseWriter, r *http.Request) {
	var report models.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	id, err := h.reports.SaveReport(r.Context(), report)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// SaveTemplate handles POST /api/reports/templates.
func (h *ReportHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	var tmpl models.ReportTemplate
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	id, err := h.reports.SaveTemplate(r.Context(), tmpl)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// SaveSchedule handles POST /api/reports/schedules. The stored schedule
// carries the computed next run.
func (h *ReportHandler) SaveSchedule(w http.ResponseWriter, r *http.Request) {
	var sched models.ReportSchedule
	if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	id, err := h.reports.SaveSchedule(r.Context(), sched)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// Export handles GET /api/reports/{id}/export?format=json|csv|tsv.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	format := reports.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = reports.FormatJSON
	}

	switch format {
	case reports.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case reports.FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
	case reports.FormatTSV:
		w.Header().Set("Content-Type", "text/tab-separated-values")
	}

	if err := h.reports.Export(r.Context(), id, format, w); err != nil {
		writeError(w, err)
		return
	}
}
