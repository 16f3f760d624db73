package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/config"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the built-in catalog through the configured backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return seed(cmd.Context(), cfg, log)
	},
}

// seed inserts every default product the backend does not have yet, so it
// can be run repeatedly.
func seed(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close(ctx)

	backend := b.productBackend(cfg, b.kvStore(cfg), log)
	writer, ok := backend.(catalog.Writer)
	if !ok {
		return errors.New("the " + backend.Name() + " catalog backend is read-only")
	}

	existing, err := backend.List(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p.ID] = true
	}

	var inserted int
	for _, p := range catalog.DefaultProducts() {
		if known[p.ID] {
			continue
		}
		if err := writer.Insert(ctx, p); err != nil {
			return err
		}
		inserted++
	}
	log.Info("catalog seeded",
		zap.String("backend", backend.Name()),
		zap.Int("inserted", inserted),
		zap.Int("existing", len(existing)))
	return nil
}
