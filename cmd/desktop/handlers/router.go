// Package handlers provides the localhost bridge API the UI shells call.
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tknelms/carkeeper/backend/internal/queue"
	"github.com/tknelms/carkeeper/backend/internal/reports"
	"github.com/tknelms/carkeeper/backend/internal/store"
	"github.com/tknelms/carkeeper/backend/internal/transfer"
)

// NewRouter wires every bridge endpoint. ws serves the WebSocket
// upgrade endpoint; events is the hub handlers broadcast through.
func NewRouter(
	s *store.Store,
	q *queue.Service,
	t *transfer.Service,
	r *reports.Service,
	replay queue.ReplayFunc,
	events Broadcaster,
	ws http.HandlerFunc,
) *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", Health(s)).Methods("GET")
	api.HandleFunc("/ws", ws).Methods("GET")

	ch := NewCollectionHandler(s)
	api.HandleFunc("/collections/{name}", ch.List).Methods("GET")
	api.HandleFunc("/collections/{name}", ch.Put).Methods("PUT")
	api.HandleFunc("/collections/{name}/clear", ch.Clear).Methods("POST")
	api.HandleFunc("/collections/{name}/{id}", ch.Get).Methods("GET")
	api.HandleFunc("/collections/{name}/{id}", ch.Delete).Methods("DELETE")

	qh := NewQueueHandler(q, replay, events)
	api.HandleFunc("/queue", qh.Enqueue).Methods("POST")
	api.HandleFunc("/queue", qh.List).Methods("GET")
	api.HandleFunc("/queue/remove", qh.Remove).Methods("POST")
	api.HandleFunc("/queue/drain", qh.Drain).Methods("POST")

	oh := NewOfflineHandler(s, events)
	api.HandleFunc("/offline", oh.Get).Methods("GET")
	api.HandleFunc("/offline", oh.Set).Methods("PUT")

	th := NewTransferHandler(t, events)
	api.HandleFunc("/import", th.Import).Methods("POST")
	api.HandleFunc("/import/legacy", th.ImportLegacy).Methods("POST")
	api.HandleFunc("/merge", th.Merge).Methods("POST")

	rh := NewReportHandler(r)
	api.HandleFunc("/reports", rh.SaveReport).Methods("POST")
	api.HandleFunc("/reports/templates", rh.SaveTemplate).Methods("POST")
	api.HandleFunc("/reports/schedules", rh.SaveSchedule).Methods("POST")
	api.HandleFunc("/reports/{id}/export", rh.Export).Methods("GET")

	return router
}
