// Package postgres opens the gorm journal backend on a PostgreSQL server.
package postgres

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/config"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/database"
	gormstorage "github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage/gorm"
)

// New connects to the server described by cfg and returns a gorm backend
// writing to it. The caller still has to Init the backend.
func New(cfg config.DBConfig, mgr *database.Manager, log *slog.Logger, writeInterval time.Duration) (*gormstorage.Backend, error) {
	db, err := mgr.OpenPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return gormstorage.New(gormstorage.Dependencies{
		DB:            db,
		DBManager:     mgr,
		Logger:        log,
		WriteInterval: writeInterval,
	}), nil
}
