// Package memory keeps the journal of the running game in RAM and writes it
// to a JSON file when the game ends.
package memory

import (
	"fmt"
	"slices"
	"sync"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/config"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/pkg/core"
)

// Backend stores game journals in memory and exports them to JSON.
type Backend struct {
	cfg config.MemoryConfig

	game   *core.Game
	events []core.EventRecord
	moves  []core.MoveRecord

	// last finished game, kept for LoadJournal after export
	last           *storage.Journal
	lastExportPath string

	mu sync.RWMutex
}

// New creates a new memory backend.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend.
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// StartGame begins a new journal, discarding any unfinished one.
func (b *Backend) StartGame(g *core.Game) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := *g
	cp.Permutation = slices.Clone(g.Permutation)
	b.game = &cp
	b.events = nil
	b.moves = nil
	return nil
}

// EndGame stamps the end time and exports the journal.
func (b *Backend) EndGame(g *core.Game) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.game == nil {
		return storage.ErrNoGame
	}
	if g.ID != b.game.ID {
		return fmt.Errorf("end of game %s while %s is recording", g.ID, b.game.ID)
	}
	b.game.EndTime = g.EndTime

	j := b.journalLocked()
	if err := b.exportJSON(j); err != nil {
		return err
	}

	b.last = &j
	b.game = nil
	b.events = nil
	b.moves = nil
	return nil
}

// RecordEvent appends an event to the running game.
func (b *Backend) RecordEvent(e *core.EventRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkGameLocked(e.GameID); err != nil {
		return err
	}
	e.ID = uint(len(b.events) + 1)
	rec := *e
	rec.Args = slices.Clone(e.Args)
	b.events = append(b.events, rec)
	return nil
}

// RecordMove appends a move to the running game.
func (b *Backend) RecordMove(m *core.MoveRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkGameLocked(m.GameID); err != nil {
		return err
	}
	m.ID = uint(len(b.moves) + 1)
	b.moves = append(b.moves, *m)
	return nil
}

// Journal returns a copy of the running game's journal.
func (b *Backend) Journal() (storage.Journal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.game == nil {
		return storage.Journal{}, false
	}
	return b.journalLocked(), true
}

// LoadJournal returns the running or the most recently finished game.
func (b *Backend) LoadJournal(gameID string) (storage.Journal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.game != nil && b.game.ID == gameID {
		return b.journalLocked(), nil
	}
	if b.last != nil && b.last.Game.ID == gameID {
		return *b.last, nil
	}
	return storage.Journal{}, fmt.Errorf("game %s not in memory", gameID)
}

// ExportedFilePath returns the path of the last exported file.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

func (b *Backend) checkGameLocked(gameID string) error {
	if b.game == nil {
		return storage.ErrNoGame
	}
	if gameID != b.game.ID {
		return fmt.Errorf("record for game %s while %s is recording", gameID, b.game.ID)
	}
	return nil
}

func (b *Backend) journalLocked() storage.Journal {
	g := *b.game
	g.Permutation = slices.Clone(b.game.Permutation)
	events := make([]core.EventRecord, len(b.events))
	for i, e := range b.events {
		e.Args = slices.Clone(e.Args)
		events[i] = e
	}
	return storage.Journal{
		Game:   g,
		Events: events,
		Moves:  slices.Clone(b.moves),
	}
}
