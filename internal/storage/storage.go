// Package storage defines the game journal backends.
package storage

import (
	"errors"
	"slices"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/pkg/core"
)

// ErrNoGame is returned when a record arrives with no game started.
var ErrNoGame = errors.New("storage: no game started")

// Backend is the interface all storage implementations must satisfy.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Game management
	StartGame(g *core.Game) error
	EndGame(g *core.Game) error

	// Journal
	RecordEvent(e *core.EventRecord) error
	RecordMove(m *core.MoveRecord) error
}

// Exporter is an optional interface for backends that write each finished
// game to a file.
type Exporter interface {
	ExportedFilePath() string
}

// Loader is an optional interface for backends that can read a stored game back.
type Loader interface {
	LoadJournal(gameID string) (Journal, error)
}

// Journal is everything recorded about one game.
type Journal struct {
	Game   core.Game          `json:"game"`
	Events []core.EventRecord `json:"events"`
	Moves  []core.MoveRecord  `json:"moves"`
}

// SortBySeq orders events and moves by their sequence number.
func (j *Journal) SortBySeq() {
	slices.SortStableFunc(j.Events, func(a, b core.EventRecord) int {
		return cmpUint(a.Seq, b.Seq)
	})
	slices.SortStableFunc(j.Moves, func(a, b core.MoveRecord) int {
		return cmpUint(a.Seq, b.Seq)
	})
}

func cmpUint(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
