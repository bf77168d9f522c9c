package api

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

type ImportResult struct {
	Imported int `json:"imported"`
}

type ClearResult struct {
	Cleared int `json:"cleared"`
}

// exportBackup downloads every stored session list, keyed by storage key.
// @Summary      Export all sessions
// @Tags         Backup
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /backup [get]
func (h *Handler) exportBackup(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.ExportAll(r.Context())
	if h.handleError(w, err, "backup") {
		return
	}

	filename := fmt.Sprintf("examgen_backup_%s.json", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	respondJSON(w, http.StatusOK, data)
}

// importBackup restores a backup produced by exportBackup. Lists in the
// backup replace the stored lists of the same key.
// @Summary      Import sessions
// @Tags         Backup
// @Accept       json
// @Produce      json
// @Param        backup  body  object  true  "Backup document"
// @Success      200  {object}  ImportResult
// @Failure      400  {object}  map[string]string
// @Router       /backup [post]
func (h *Handler) importBackup(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.store.ImportAll(r.Context(), body)
	if h.handleError(w, err, "backup") {
		return
	}
	h.logger.Info("backup imported", "lists", n)
	respondJSON(w, http.StatusOK, ImportResult{Imported: n})
}

// clearBackup deletes every stored session of every dataset.
// @Summary      Delete all sessions
// @Tags         Backup
// @Produce      json
// @Success      200  {object}  ClearResult
// @Router       /backup [delete]
func (h *Handler) clearBackup(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, err := h.store.ClearAll(r.Context())
	if h.handleError(w, err, "backup") {
		return
	}
	h.logger.Info("sessions cleared", "lists", n)
	respondJSON(w, http.StatusOK, ClearResult{Cleared: n})
}
