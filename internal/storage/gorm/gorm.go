// Package gormstorage implements storage.Backend on top of gorm. Game rows
// are written immediately; events and moves go through in-memory queues that a
// background writer drains in batches.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/database"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/model"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/model/convert"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/queue"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/pkg/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultWriteInterval is used when Dependencies.WriteInterval is not set.
const DefaultWriteInterval = 2 * time.Second

// Dependencies holds all dependencies for the gorm storage backend.
type Dependencies struct {
	DB            *gorm.DB
	DBManager     *database.Manager
	Logger        *slog.Logger
	WriteInterval time.Duration
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	Events *queue.Queue[model.EventRecord]
	Moves  *queue.Queue[model.MoveRecord]
}

func newQueues() *queues {
	return &queues{
		Events: queue.New[model.EventRecord](),
		Moves:  queue.New[model.MoveRecord](),
	}
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	queues *queues

	mu     sync.RWMutex
	gameID string

	flushMu   sync.Mutex
	stopChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new gorm storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.WriteInterval <= 0 {
		deps.WriteInterval = DefaultWriteInterval
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs the schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil || b.deps.DBManager == nil {
		return errors.New("gorm storage: database not configured")
	}
	if err := b.deps.DBManager.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.queues = newQueues()
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	b.startDBWriter()
	return nil
}

// Close stops the writer after a final flush.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.closeOnce.Do(func() {
		close(b.stopChan)
		<-b.done
	})
	return nil
}

// StartGame inserts the game row and routes subsequent records to it.
func (b *Backend) StartGame(g *core.Game) error {
	if b.queues == nil {
		return errors.New("gorm storage: not initialized")
	}
	row := convert.GameToGorm(*g)
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}

	b.mu.Lock()
	b.gameID = g.ID
	b.mu.Unlock()

	b.deps.Logger.Info("game started", "game", g.ID, "seed", g.Seed)
	return nil
}

// EndGame flushes pending records and stamps the end time.
func (b *Backend) EndGame(g *core.Game) error {
	if err := b.checkGame(g.ID); err != nil {
		return err
	}
	if err := b.Flush(); err != nil {
		return err
	}

	err := b.deps.DB.Model(&model.Game{}).
		Where("id = ?", g.ID).
		Update("end_time", g.EndTime).Error
	if err != nil {
		return fmt.Errorf("failed to close game %s: %w", g.ID, err)
	}

	b.mu.Lock()
	b.gameID = ""
	b.mu.Unlock()

	b.deps.Logger.Info("game ended", "game", g.ID)
	return nil
}

// RecordEvent queues an event row.
func (b *Backend) RecordEvent(e *core.EventRecord) error {
	if err := b.checkGame(e.GameID); err != nil {
		return err
	}
	b.queues.Events.Push(convert.EventToGorm(*e))
	return nil
}

// RecordMove queues a move row.
func (b *Backend) RecordMove(m *core.MoveRecord) error {
	if err := b.checkGame(m.GameID); err != nil {
		return err
	}
	b.queues.Moves.Push(convert.MoveToGorm(*m))
	return nil
}

// Pending returns the number of queued rows not yet written.
func (b *Backend) Pending() int {
	if b.queues == nil {
		return 0
	}
	return b.queues.Events.Len() + b.queues.Moves.Len()
}

// Flush writes every queued row now.
func (b *Backend) Flush() error {
	if b.queues == nil {
		return nil
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	log := b.deps.Logger
	return errors.Join(
		writeQueue(b.deps.DB, b.queues.Events, "event_records", log),
		writeQueue(b.deps.DB, b.queues.Moves, "move_records", log),
	)
}

// LoadJournal reads a game with its events and moves ordered by sequence.
func (b *Backend) LoadJournal(gameID string) (storage.Journal, error) {
	if err := b.Flush(); err != nil {
		return storage.Journal{}, err
	}
	return LoadJournal(b.deps.DB, gameID)
}

// Games lists stored games, newest first.
func (b *Backend) Games() ([]core.Game, error) {
	return ListGames(b.deps.DB)
}

func (b *Backend) checkGame(gameID string) error {
	if b.queues == nil {
		return errors.New("gorm storage: not initialized")
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.gameID == "" {
		return storage.ErrNoGame
	}
	if gameID != b.gameID {
		return fmt.Errorf("record for game %s while %s is recording", gameID, b.gameID)
	}
	return nil
}

// writeQueue drains q into one transaction. On failure the rows go back to the
// front of the queue for the next pass.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) error {
	items := q.Drain()
	if len(items) == 0 {
		return nil
	}

	tx := db.Begin()
	if err := tx.Error; err != nil {
		q.Requeue(items)
		return fmt.Errorf("begin %s batch: %w", name, err)
	}
	if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
		tx.Rollback()
		q.Requeue(items)
		log.Error("error writing batch", "table", name, "count", len(items), "error", err)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Requeue(items)
		return fmt.Errorf("commit %s: %w", name, err)
	}

	log.Debug("wrote batch", "table", name, "count", len(items))
	return nil
}

// startDBWriter starts the goroutine that periodically drains the queues.
func (b *Backend) startDBWriter() {
	ticker := time.NewTicker(b.deps.WriteInterval)

	go func() {
		defer close(b.done)
		defer ticker.Stop()
		for {
			select {
			case <-b.stopChan:
				if err := b.Flush(); err != nil {
					b.deps.Logger.Error("final flush failed", "error", err)
				}
				return
			case <-ticker.C:
				// errors are logged by writeQueue and retried next tick
				_ = b.Flush()
			}
		}
	}()
}
