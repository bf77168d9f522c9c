package catalog

import (
	"context"
	"log/slog"
	"sync"
)

// Registry serves the manifest's datasets and caches their loaded catalogs.
type Registry struct {
	manifest *Manifest
	loader   *Loader
	logger   *slog.Logger

	mu       sync.RWMutex
	catalogs map[string]*Catalog
}

func NewRegistry(manifest *Manifest, loader *Loader, logger *slog.Logger) *Registry {
	return &Registry{
		manifest: manifest,
		loader:   loader,
		logger:   logger,
		catalogs: make(map[string]*Catalog),
	}
}

// Datasets returns the manifest entries in manifest order.
func (r *Registry) Datasets() []Dataset {
	out := make([]Dataset, len(r.manifest.Datasets))
	copy(out, r.manifest.Datasets)
	return out
}

func (r *Registry) Dataset(id string) (Dataset, error) {
	return r.manifest.Lookup(id)
}

// Catalog returns the dataset's catalog, loading it on first use.
func (r *Registry) Catalog(ctx context.Context, id string) (*Catalog, error) {
	r.mu.RLock()
	c, ok := r.catalogs[id]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}
	return r.Reload(ctx, id)
}

// Reload fetches the dataset again. On failure the previously loaded
// catalog, if any, stays in place.
func (r *Registry) Reload(ctx context.Context, id string) (*Catalog, error) {
	d, err := r.manifest.Lookup(id)
	if err != nil {
		return nil, err
	}

	c, err := r.loader.Load(ctx, d.Sources)
	if err != nil {
		r.logger.Error("failed to load dataset", "dataset_id", id, "error", err)
		return nil, err
	}

	r.mu.Lock()
	r.catalogs[id] = c
	r.mu.Unlock()
	return c, nil
}
