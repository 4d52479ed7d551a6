package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/set-night/copydesk"
	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/logging"
	"github.com/set-night/copydesk/internal/repository"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "copydesk",
		Short:         "AI copywriting tools backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		seedCmd(),
	)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// setup loads configuration, installs the logger and opens the store with
// its migrations applied.
func setup(ctx context.Context) (*config.Config, repository.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel))

	store, err := repository.Open(ctx, cfg, copydesk.MigrationsFS)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}
