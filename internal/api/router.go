// internal/api/router.go
package api

import "net/http"

// RegisterRoutes mounts every API route on mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /health", h.health)

	// Datasets
	mux.HandleFunc("GET /datasets", h.listDatasets)
	mux.HandleFunc("GET /datasets/{datasetID}/questions", h.searchQuestions)
	mux.HandleFunc("GET /datasets/{datasetID}/filters", h.getFilters)
	mux.HandleFunc("GET /datasets/{datasetID}/stats", h.getExamStats)

	// Quiz sessions
	mux.HandleFunc("POST /datasets/{datasetID}/sessions", h.startSession)
	mux.HandleFunc("GET /datasets/{datasetID}/sessions", h.listSessions)
	mux.HandleFunc("GET /datasets/{datasetID}/sessions/latest-finished", h.latestFinishedSession)
	mux.HandleFunc("GET /datasets/{datasetID}/sessions/{sessionID}", h.getSession)
	mux.HandleFunc("DELETE /datasets/{datasetID}/sessions/{sessionID}", h.abortSession)
	mux.HandleFunc("PUT /datasets/{datasetID}/sessions/{sessionID}/answers/{questionID}", h.selectAnswer)
	mux.HandleFunc("POST /datasets/{datasetID}/sessions/{sessionID}/answers/{questionID}/submit", h.submitAnswer)
	mux.HandleFunc("DELETE /datasets/{datasetID}/sessions/{sessionID}/answers/{questionID}/submit", h.unsubmitAnswer)
	mux.HandleFunc("POST /datasets/{datasetID}/sessions/{sessionID}/finish", h.finishSession)
	mux.HandleFunc("GET /datasets/{datasetID}/sessions/{sessionID}/results.csv", h.exportResults)

	// Backup
	mux.HandleFunc("GET /backup", h.exportBackup)
	mux.HandleFunc("POST /backup", h.importBackup)
	mux.HandleFunc("DELETE /backup", h.clearBackup)
}

// health reports liveness.
// @Summary      Health check
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
