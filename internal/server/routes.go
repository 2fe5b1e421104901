package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/brainlab/internal/handler/health"
)

var errCatalogEmpty = errors.New("entity catalog is empty")

// catalogChecker reports unhealthy until the entity table has rows.
type catalogChecker struct{ store CatalogStore }

func (c catalogChecker) Check(ctx context.Context) error {
	n, err := c.store.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return errCatalogEmpty
	}
	return nil
}

func addRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, store CatalogStore, sessions *Sessions, adminHash, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Brainlab API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, map[string]health.Checker{
		"sqlite":  health.SQLChecker{DB: db},
		"catalog": catalogChecker{store: store},
	}).Routes())

	r.Get("/api/entities", handleListEntities(store))
	r.Get("/api/entities/{name}", handleGetEntity(store))

	r.Route("/api/admin/entities", func(r chi.Router) {
		r.Use(adminAuthMiddleware(adminHash))
		r.Put("/{name}", handlePutEntity(store))
		r.Delete("/{name}", handleDeleteEntity(store))
	})

	r.Post("/api/sessions", handleCreateSession(sessions))
	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", handleGetSession(sessions))
		r.Delete("/", handleDeleteSession(sessions))

		r.Post("/tick", handleCommand(sessions, cmdTick))
		r.Post("/select", handleCommand(sessions, cmdSelect))
		r.Post("/sim/play", handleCommand(sessions, cmdPlay))
		r.Post("/sim/pause", handleCommand(sessions, cmdPause))
		r.Post("/sim/step", handleCommand(sessions, cmdStep))
		r.Post("/sim/reset", handleCommand(sessions, cmdReset))
		r.Post("/quiz/mode", handleCommand(sessions, cmdMode))

		r.Get("/events", handleEvents(sessions))
		r.Get("/ws", handleStream(sessions))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
