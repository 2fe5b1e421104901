package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/brainlab/internal/catalog"
	"github.com/playperu/brainlab/internal/config"
	"github.com/playperu/brainlab/internal/database"
	"github.com/playperu/brainlab/internal/migrations"
	"github.com/playperu/brainlab/internal/server"
	"github.com/playperu/brainlab/internal/tuning"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Tuning ---
	tn := tuning.Default()
	if cfg.TuningPath != "" {
		if tn, err = tuning.Load(cfg.TuningPath); err != nil {
			return fmt.Errorf("loading tuning: %w", err)
		}
		logger.Info("loaded tuning", "path", cfg.TuningPath)
	}

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	store := catalog.NewStore(db)
	if err := server.SeedCatalog(ctx, logger, store, cfg.CatalogPath); err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH not set, admin API disabled")
	}

	// --- HTTP Server ---
	sessions := server.NewSessions(store, tn, cfg.SessionIdleTimeout, logger)
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		DB:        db,
		Catalog:   store,
		Sessions:  sessions,
		AdminHash: cfg.AdminPasswordHash,
		SPADir:    cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return sessions.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
