// Package match holds the game in progress. Input handlers write to it one
// event at a time; renderers and journal writers read snapshots.
package match

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/game"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/pkg/core"
	"github.com/google/uuid"
)

// ErrNoGame is returned when an event arrives while no game is running.
var ErrNoGame = errors.New("no game in progress")

// Context holds the current game and its metadata.
type Context struct {
	mu    sync.RWMutex
	game  *core.Game
	state *game.State
	seq   uint
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{}
}

// Start deals a new game from seed, replacing any game in progress.
func (c *Context) Start(seed uint64, now time.Time) core.Game {
	perm := game.Shuffle(seed)
	s := game.New(seed)

	g := &core.Game{
		ID:          uuid.NewString(),
		Seed:        seed,
		Permutation: perm[:],
		StartTime:   now,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.game = g
	c.state = s
	c.seq = 0
	return copyGame(g)
}

// End closes the running game and returns its final metadata.
func (c *Context) End(now time.Time) (core.Game, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.game == nil {
		return core.Game{}, ErrNoGame
	}
	c.game.EndTime = now
	g := copyGame(c.game)
	c.game = nil
	c.state = nil
	c.seq = 0
	return g, nil
}

// Game returns the metadata of the running game.
func (c *Context) Game() (core.Game, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.game == nil {
		return core.Game{}, false
	}
	return copyGame(c.game), true
}

// Seq returns the sequence number of the last applied event.
func (c *Context) Seq() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seq
}

// Snapshot returns a render copy of the running game.
func (c *Context) Snapshot() (game.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == nil {
		return game.Snapshot{}, ErrNoGame
	}
	return c.state.Snapshot(), nil
}

// LogAttrs describes the running game for log records.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.game == nil {
		return nil
	}
	return []slog.Attr{
		slog.String("game", c.game.ID),
		slog.Uint64("seq", uint64(c.seq)),
	}
}

// Step is the identity of an applied event.
type Step struct {
	GameID string
	Seq    uint
}

// Update applies fn to the running game under the write lock and assigns the
// event the next sequence number. It is a function rather than a method so
// that fn may return any type.
func Update[T any](c *Context, fn func(*game.State) T) (T, Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if c.state == nil {
		return zero, Step{}, ErrNoGame
	}
	out := fn(c.state)
	c.seq++
	return out, Step{GameID: c.game.ID, Seq: c.seq}, nil
}

// Touch applies a presentation-only change, such as pointer hover, under the
// write lock. It does not consume a sequence number.
func (c *Context) Touch(fn func(*game.State)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return ErrNoGame
	}
	fn(c.state)
	return nil
}

func copyGame(g *core.Game) core.Game {
	out := *g
	out.Permutation = append([]int(nil), g.Permutation...)
	return out
}
