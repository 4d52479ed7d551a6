package main

import (
	"log/slog"

	"github.com/set-night/copydesk"
	"github.com/set-night/copydesk/internal/seed"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			slog.Info("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the starter catalog, users and projects",
		Long: `Load the embedded starter data into the configured store.

Records that already exist are left alone, so seeding twice is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, store, err := setup(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := seed.Parse(copydesk.SeedCatalog)
			if err != nil {
				return err
			}
			_, err = seed.New(store).Apply(ctx, f)
			return err
		},
	}
}
