package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/slmhealth/internal/control"
	"github.com/vietddude/slmhealth/internal/core/config"
)

// withStore opens the configured store, runs fn and persists the result.
// Any error terminates the process.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.AppConfig, store *control.Store) error) {
	cfg := loadConfig(cmd)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := control.OpenStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open store", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	if err := fn(ctx, cfg, store); err != nil {
		slog.Error("Command failed", "command", cmd.Name(), "error", err)
		_ = store.Close()
		os.Exit(1)
	}

	if err := store.Persist(); err != nil {
		slog.Error("Failed to persist state", "error", err)
		_ = store.Close()
		os.Exit(1)
	}
}
