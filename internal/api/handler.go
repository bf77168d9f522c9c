// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/examgen/backend/internal/catalog"
	"github.com/examgen/backend/internal/domain/quizsession"
	"github.com/examgen/backend/internal/service"
	"github.com/examgen/backend/internal/store"
)

// maxBodyBytes bounds request bodies, backups included.
const maxBodyBytes = 32 << 20

var errSessionNotFound = errors.New("session not found")

// Handler holds all dependencies needed by HTTP handlers.
// Instead of relying on package-level globals, every handler method
// receives its dependencies through this struct.
type Handler struct {
	store    *store.SQLStore
	catalogs *catalog.Registry
	stats    *service.StatsService
	logger   *slog.Logger

	engineOpts []quizsession.Option

	// mu serializes mutations. An Engine is single-threaded and every
	// request rebuilds one from the store.
	mu sync.Mutex
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(s *store.SQLStore, catalogs *catalog.Registry, stats *service.StatsService, logger *slog.Logger, opts ...quizsession.Option) *Handler {
	return &Handler{
		store:      s,
		catalogs:   catalogs,
		stats:      stats,
		logger:     logger,
		engineOpts: opts,
	}
}

func (h *Handler) newEngine(ds catalog.Dataset) *quizsession.Engine {
	return quizsession.NewEngine(
		quizsession.Dataset{ID: ds.ID, Label: ds.Label, NotebookURL: ds.NotebookURL},
		h.store,
		h.logger,
		h.engineOpts...,
	)
}

// loadEngine resolves the dataset and hydrates an engine with the stored
// session.
func (h *Handler) loadEngine(ctx context.Context, datasetID, sessionID string) (*quizsession.Engine, *catalog.Catalog, error) {
	ds, err := h.catalogs.Dataset(datasetID)
	if err != nil {
		return nil, nil, err
	}
	cat, err := h.catalogs.Catalog(ctx, datasetID)
	if err != nil {
		return nil, nil, err
	}
	rec, err := h.store.Load(ctx, datasetID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return nil, nil, errSessionNotFound
	}

	e := h.newEngine(ds)
	if err := e.Hydrate(*rec); err != nil {
		return nil, nil, err
	}
	return e, cat, nil
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v. It writes a 400 and returns
// false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// handleError maps domain errors to HTTP responses. Returns true if an
// error was handled (caller should return).
func (h *Handler) handleError(w http.ResponseWriter, err error, entity string) bool {
	if err == nil {
		return false
	}

	var loadErr *catalog.LoadError
	switch {
	case errors.Is(err, catalog.ErrUnknownDataset):
		http.Error(w, "dataset not found", http.StatusNotFound)
	case errors.Is(err, errSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	case errors.As(err, &loadErr):
		h.logger.Error("dataset unavailable", "error", err, "source", loadErr.Source)
		http.Error(w, "dataset unavailable", http.StatusBadGateway)
	case errors.Is(err, quizsession.ErrInvalidSubset):
		http.Error(w, "no questions match the selection", http.StatusBadRequest)
	case errors.Is(err, quizsession.ErrInvalidSelection):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, quizsession.ErrNotInSession):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quizsession.ErrNotActive),
		errors.Is(err, quizsession.ErrAlreadySubmitted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, quizsession.ErrInvalidSessionType):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, store.ErrInvalidBackup):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("request failed", "error", err, "entity", entity)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
	return true
}
