package database

import (
	"context"
	"fmt"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/config"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
)

// Open connects to the configured backend and returns a migrated DownloadStore.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger) (DownloadStore, error) {
	switch cfg.Driver {
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path, logger)
	case "postgres", "":
		db, err := New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store, err := NewPostgresStore(ctx, db, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
