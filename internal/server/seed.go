package server

import (
	"cmp"
	"context"
	"log/slog"

	"github.com/playperu/brainlab/internal/catalog"
)

// SeedCatalog fills an empty entity table from the YAML file at path, or
// from the built-in catalog when path is empty. Idempotent: does nothing if
// entities already exist.
func SeedCatalog(ctx context.Context, logger *slog.Logger, store *catalog.Store, path string) error {
	docs := catalog.Default()
	if path != "" {
		var err error
		if docs, err = catalog.Load(path); err != nil {
			return err
		}
	}

	seeded, err := store.Seed(ctx, docs)
	if err != nil {
		return err
	}
	if seeded {
		logger.Info("entity catalog seeded", "entities", len(docs), "source", cmp.Or(path, "built-in"))
	}
	return nil
}
