package main

import (
	"fmt"
	"log/slog"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/config"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/database"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage/memory"
	pgstorage "github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage/postgres"
	sqlitestorage "github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage/sqlite"
)

func createStorageBackend(storageCfg config.StorageConfig, dbm *database.Manager, logger *slog.Logger) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		backend, err := pgstorage.New(config.GetDBConfig(), dbm, logger, storageCfg.WriteInterval)
		if err != nil {
			return nil, fmt.Errorf("failed to create Postgres backend: %w", err)
		}
		logger.Info("Postgres storage backend initialized")
		return backend, nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, dbm, logger, storageCfg.WriteInterval)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return backend, nil

	case "memory", "":
		logger.Info("Memory storage backend initialized", "dir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		logger.Warn("Unknown storage type, using memory", "type", storageCfg.Type)
		return memory.New(storageCfg.Memory), nil
	}
}
