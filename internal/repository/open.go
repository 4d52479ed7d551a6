package repository

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/set-night/copydesk/internal/config"
	"github.com/set-night/copydesk/internal/repository/postgres"
	"github.com/set-night/copydesk/internal/repository/sqlite"
)

var (
	_ Store = (*postgres.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// Open selects the backend named by cfg.StoreBackend and applies its
// migrations from the matching directory of migrations. A nil migrations
// skips migrating.
func Open(ctx context.Context, cfg *config.Config, migrations fs.FS) (Store, error) {
	sub := func(dir string) (fs.FS, error) {
		if migrations == nil {
			return nil, nil
		}
		f, err := fs.Sub(migrations, "migrations/"+dir)
		if err != nil {
			return nil, fmt.Errorf("migrations for %s: %w", dir, err)
		}
		return f, nil
	}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		m, err := sub(config.BackendPostgres)
		if err != nil {
			return nil, err
		}
		s, err := postgres.Open(ctx, cfg.DatabaseURL, m)
		if err != nil {
			return nil, err
		}
		slog.Info("store opened", "backend", cfg.StoreBackend)
		return s, nil
	case config.BackendSQLite:
		m, err := sub(config.BackendSQLite)
		if err != nil {
			return nil, err
		}
		s, err := sqlite.Open(cfg.SQLitePath, m)
		if err != nil {
			return nil, err
		}
		slog.Info("store opened", "backend", cfg.StoreBackend, "path", cfg.SQLitePath)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
