// Package sqlitestorage implements storage.Backend on a SQLite database, in
// memory or on disk, with optional periodic dumps via VACUUM INTO.
// It wraps the gorm backend; the SQLite-specific parts are opening the
// database and the dump loop.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/config"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/database"
	gormstorage "github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage/gorm"
)

// Backend wraps the gorm backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg       config.SQLiteConfig
	mgr       *database.Manager
	log       *slog.Logger
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New opens the database described by cfg.
func New(cfg config.SQLiteConfig, mgr *database.Manager, log *slog.Logger, writeInterval time.Duration) (*Backend, error) {
	db, err := mgr.OpenSqlite(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:            db,
		DBManager:     mgr,
		Logger:        log,
		WriteInterval: writeInterval,
	})

	return &Backend{
		Backend:  gormBackend,
		cfg:      cfg,
		mgr:      mgr,
		log:      log,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded gorm backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.dumping() {
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump goroutine, flushes the gorm backend, writes a final
// dump and closes the database.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.stopChan)
		b.wg.Wait()

		if err = b.Backend.Close(); err != nil {
			return
		}
		if b.cfg.DumpPath != "" {
			if err = b.Dump(); err != nil {
				return
			}
		}

		sqlDB, dbErr := b.DB().DB()
		if dbErr != nil {
			err = dbErr
			return
		}
		err = sqlDB.Close()
	})
	return err
}

// Dump flushes pending rows and writes a snapshot to the dump path.
func (b *Backend) Dump() error {
	if err := b.Flush(); err != nil {
		return err
	}
	return b.mgr.DumpMemoryToDisk(b.DB(), b.cfg.DumpPath)
}

func (b *Backend) dumping() bool {
	return b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0
}

// dumpLoop periodically dumps the database to disk. VACUUM INTO takes a
// point-in-time snapshot, so writers keep running.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Dump(); err != nil {
				b.log.Error("error dumping to disk", "path", b.cfg.DumpPath, "error", err)
			}
		}
	}
}
