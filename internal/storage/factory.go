package storage

import (
	"context"
	"fmt"

	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/config"
)

// NewGateway opens the configured backend and wraps it with the granted permissions.
func NewGateway(ctx context.Context, cfg *config.Config, logger internal.Logger) (Gateway, error) {
	var (
		gw  Gateway
		err error
	)
	switch cfg.StorageBackend {
	case "file":
		gw, err = NewFileStorage(cfg.DataFile, logger)
	case "sqlite":
		gw, err = NewSQLiteStorage(cfg.SQLitePath, logger)
	case "postgres":
		gw, err = NewPostgresStorage(ctx, cfg.DBDSN, logger)
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if err != nil {
		return nil, err
	}
	logger.Infof("storage: using %s backend", cfg.StorageBackend)
	return NewGuardedGateway(gw, cfg.Permissions, logger), nil
}
