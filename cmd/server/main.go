package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/examgen/backend/internal/api"
	"github.com/examgen/backend/internal/catalog"
	"github.com/examgen/backend/internal/infrastructure/config"
	"github.com/examgen/backend/internal/service"
	"github.com/examgen/backend/internal/store"

	_ "github.com/examgen/backend/docs" // swagger docs
)

// @title           Examgen API
// @version         1.0
// @description     Self-study quiz engine: filter a question dataset, take practice or exam sessions, resume and review them.

// @host      localhost:8080
// @BasePath  /

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// ── Dependencies ────────────────────────────────────────────────
	ctx := context.Background()
	db, err := store.Open(ctx, store.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err, "driver", cfg.DBDriver)
		os.Exit(1)
	}
	sessions := store.NewSQLStore(db, logger)
	defer sessions.Close()

	manifest, err := catalog.LoadManifest(cfg.ManifestPath)
	if err != nil {
		logger.Error("failed to load manifest", "error", err, "path", cfg.ManifestPath)
		os.Exit(1)
	}
	loader := catalog.NewLoader(&http.Client{Timeout: cfg.FetchTimeout}, cfg.LoaderWorkers, logger)
	registry := catalog.NewRegistry(manifest, loader, logger)

	stats := service.NewStatsService(sessions, logger)
	handler := api.NewHandler(sessions, registry, stats, logger)

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.RegisterRoutes(mux, handler)

	// Swagger UI served at /swagger/
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// ── Middleware chain: Logging → CORS → mux ──────────────────────
	logged := api.Logging(logger)(api.CORS(cfg.CORSOrigins)(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server",
		"address", cfg.ServerAddress,
		"driver", cfg.DBDriver,
		"datasets", len(manifest.Datasets),
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}
