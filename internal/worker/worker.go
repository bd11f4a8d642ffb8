// Package worker turns dispatched input events into game operations and
// journals every applied event.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/dispatcher"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/match"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/worker"

// DefaultHoverBuffer is the pointer event queue size used when none is configured.
const DefaultHoverBuffer = 256

// MoveSink receives move telemetry. *influx.Manager satisfies it.
type MoveSink interface {
	WriteMove(m *core.MoveRecord) error
}

// Dependencies holds all dependencies for the worker manager.
type Dependencies struct {
	Match  *match.Context
	Logger *slog.Logger
	// Telemetry is optional.
	Telemetry MoveSink
	// Seed picks the seed of a :NEW:GAME: that does not name one.
	Seed func() uint64
	// Now stamps game start and end. Defaults to time.Now.
	Now         func() time.Time
	HoverBuffer int
	// ScriptMode handles hovers synchronously, in order with every other
	// command. HoverBuffer is ignored then.
	ScriptMode bool
}

// Manager owns the event handlers.
type Manager struct {
	deps    Dependencies
	backend storage.Backend

	moves        metric.Int64Counter
	gamesStarted metric.Int64Counter
}

// NewManager creates a new worker manager. backend may be nil, in which case
// nothing is journaled.
func NewManager(deps Dependencies, backend storage.Backend) (*Manager, error) {
	if deps.Match == nil {
		deps.Match = match.NewContext()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Seed == nil {
		deps.Seed = func() uint64 { return uint64(time.Now().UnixNano()) }
	}
	if deps.HoverBuffer <= 0 {
		deps.HoverBuffer = DefaultHoverBuffer
	}

	m := &Manager{deps: deps, backend: backend}

	meter := otel.Meter(instrumentationName)
	var err error
	m.moves, err = meter.Int64Counter(
		"tortuga.moves",
		metric.WithDescription("Move requests by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating moves counter: %w", err)
	}
	m.gamesStarted, err = meter.Int64Counter(
		"tortuga.games.started",
		metric.WithDescription("Games dealt"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating games counter: %w", err)
	}

	return m, nil
}

// Match returns the game context the handlers write to.
func (m *Manager) Match() *match.Context {
	return m.deps.Match
}

func (m *Manager) hasBackend() bool {
	return m.backend != nil
}

// journal records an applied event. Storage failures are logged, not returned:
// the game has already changed and the caller's result stands.
func (m *Manager) journal(step match.Step, e dispatcher.Event, result string) {
	if !m.hasBackend() {
		return
	}
	rec := &core.EventRecord{
		GameID:  step.GameID,
		Seq:     step.Seq,
		Time:    e.Timestamp,
		Command: e.Command,
		Args:    e.Args,
		Result:  result,
	}
	if err := m.backend.RecordEvent(rec); err != nil {
		m.deps.Logger.Error("failed to journal event", "command", e.Command, "game", step.GameID, "seq", step.Seq, "error", err)
	}
}

func (m *Manager) recordMove(rec *core.MoveRecord) {
	if m.hasBackend() {
		if err := m.backend.RecordMove(rec); err != nil {
			m.deps.Logger.Error("failed to journal move", "game", rec.GameID, "seq", rec.Seq, "error", err)
		}
	}
	if m.deps.Telemetry != nil {
		if err := m.deps.Telemetry.WriteMove(rec); err != nil {
			m.deps.Logger.Warn("failed to send move telemetry", "error", err)
		}
	}
}
