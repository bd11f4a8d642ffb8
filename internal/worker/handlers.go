package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/board"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/dispatcher"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/game"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/match"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/parser"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Commands understood by the handlers.
const (
	CmdNewGame    = ":NEW:GAME:"
	CmdSelect     = ":SELECT:"
	CmdSelectCell = ":SELECT:CELL:"
	CmdDeselect   = ":DESELECT:"
	CmdRotate     = ":ROTATE:"
	CmdMove       = ":MOVE:"
	CmdHover      = ":HOVER:"
	CmdSnapshot   = ":SNAPSHOT:"
	CmdEndGame    = ":END:GAME:"
)

// SelectResult is returned by the select commands.
type SelectResult struct {
	Selected bool `json:"selected"`
	Cell     *int `json:"cell,omitempty"`
}

// RotateResult is returned by :ROTATE:.
type RotateResult struct {
	Rotated  bool           `json:"rotated"`
	Cell     *int           `json:"cell,omitempty"`
	Rotation board.Rotation `json:"rotation"`
}

// MoveResult is returned by :MOVE:.
type MoveResult struct {
	Outcome game.Outcome `json:"outcome"`
	Origin  int          `json:"origin"`
	Target  int          `json:"target"`
}

// EndResult is returned by :END:GAME:.
type EndResult struct {
	Game       core.Game `json:"game"`
	ExportPath string    `json:"exportPath,omitempty"`
}

// RegisterHandlers registers all event handlers with the dispatcher.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Game lifecycle - sync
	d.Register(CmdNewGame, m.handleNewGame, dispatcher.Logged())
	d.Register(CmdEndGame, m.handleEndGame, dispatcher.Logged())

	// Selection and moves - sync, each one completes before the next event
	d.Register(CmdSelect, m.handleSelect, dispatcher.Logged())
	d.Register(CmdSelectCell, m.handleSelectCell, dispatcher.Logged())
	d.Register(CmdDeselect, m.handleDeselect, dispatcher.Logged())
	d.Register(CmdRotate, m.handleRotate, dispatcher.Logged())
	d.Register(CmdMove, m.handleMove, dispatcher.Logged())

	// Read-only
	d.Register(CmdSnapshot, m.handleSnapshot)

	// Pointer motion - high volume and advisory, buffered unless scripted.
	// A script reads the highlight back with :SNAPSHOT:, so there it runs in line.
	if m.deps.ScriptMode {
		d.Register(CmdHover, m.handleHover)
	} else {
		d.Register(CmdHover, m.handleHover, dispatcher.Buffered(m.deps.HoverBuffer))
	}
}

func (m *Manager) handleNewGame(e dispatcher.Event) (any, error) {
	seed, ok, err := parser.ParseSeed(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse new game: %w", err)
	}
	if !ok {
		seed = m.deps.Seed()
	}

	if _, running := m.deps.Match.Game(); running {
		if _, err := m.endGame(); err != nil {
			return nil, err
		}
	}

	g := m.deps.Match.Start(seed, m.deps.Now())
	m.gamesStarted.Add(context.Background(), 1)
	m.deps.Logger.Info("new game", "game", g.ID, "seed", g.Seed)

	if m.hasBackend() {
		if err := m.backend.StartGame(&g); err != nil {
			m.deps.Logger.Error("failed to journal game start", "game", g.ID, "error", err)
		}
	}
	return g, nil
}

func (m *Manager) handleEndGame(e dispatcher.Event) (any, error) {
	return m.endGame()
}

func (m *Manager) endGame() (EndResult, error) {
	g, err := m.deps.Match.End(m.deps.Now())
	if err != nil {
		return EndResult{}, err
	}
	res := EndResult{Game: g}
	m.deps.Logger.Info("game ended", "game", g.ID)

	if m.hasBackend() {
		if err := m.backend.EndGame(&g); err != nil {
			return res, fmt.Errorf("failed to close game journal: %w", err)
		}
		if ex, ok := m.backend.(storage.Exporter); ok {
			res.ExportPath = ex.ExportedFilePath()
		}
	}
	return res, nil
}

func (m *Manager) handleSelect(e dispatcher.Event) (any, error) {
	p, err := parser.ParsePoint(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse select: %w", err)
	}
	return m.applySelect(e, func(s *game.State) bool { return s.SelectAt(p.X, p.Y) })
}

func (m *Manager) handleSelectCell(e dispatcher.Event) (any, error) {
	i, err := parser.ParseCell(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse select cell: %w", err)
	}
	return m.applySelect(e, func(s *game.State) bool { return s.Select(i) })
}

func (m *Manager) applySelect(e dispatcher.Event, sel func(*game.State) bool) (any, error) {
	res, step, err := match.Update(m.deps.Match, func(s *game.State) SelectResult {
		ok := sel(s)
		out := SelectResult{Selected: ok}
		if i, has := s.Selected(); has {
			out.Cell = &i
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	m.journal(step, e, strconv.FormatBool(res.Selected))
	return res, nil
}

func (m *Manager) handleDeselect(e dispatcher.Event) (any, error) {
	if len(e.Args) != 0 {
		return nil, fmt.Errorf("failed to parse deselect: %w", parser.ErrBadArgs)
	}
	_, step, err := match.Update(m.deps.Match, func(s *game.State) struct{} {
		s.Deselect()
		return struct{}{}
	})
	if err != nil {
		return nil, err
	}
	m.journal(step, e, "ok")
	return SelectResult{Selected: false}, nil
}

func (m *Manager) handleRotate(e dispatcher.Event) (any, error) {
	turn, err := parser.ParseRotateDir(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rotate: %w", err)
	}
	res, step, err := match.Update(m.deps.Match, func(s *game.State) RotateResult {
		out := RotateResult{Rotated: s.Rotate(turn)}
		if i, ok := s.Selected(); ok {
			out.Cell = &i
			out.Rotation = s.Cell(i).Rotation
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	m.journal(step, e, strconv.FormatBool(res.Rotated))
	return res, nil
}

func (m *Manager) handleMove(e dispatcher.Event) (any, error) {
	d, err := parser.ParseDirection(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse move: %w", err)
	}

	type applied struct {
		rec     core.MoveRecord
		outcome game.Outcome
	}
	res, step, err := match.Update(m.deps.Match, func(s *game.State) applied {
		rec := core.MoveRecord{Origin: -1, Target: -1, Direction: int(d)}
		origin, target, ok := s.MoveTarget(d)
		if origin >= 0 {
			c := s.Cell(origin)
			rec.Origin = origin
			rec.Value = c.Outdoor.Value
			rec.Faction = c.Outdoor.Faction.String()
			rec.Rotation = int(c.Rotation)
		}
		if ok {
			rec.Target = target
		}
		out := s.MoveSelected(d)
		rec.Outcome = out.String()
		return applied{rec: rec, outcome: out}
	})
	if err != nil {
		return nil, err
	}

	rec := res.rec
	rec.GameID = step.GameID
	rec.Seq = step.Seq
	rec.Time = e.Timestamp

	m.journal(step, e, rec.Outcome)
	m.recordMove(&rec)
	m.moves.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", rec.Outcome)))

	return MoveResult{Outcome: res.outcome, Origin: rec.Origin, Target: rec.Target}, nil
}

func (m *Manager) handleHover(e dispatcher.Event) (any, error) {
	p, err := parser.ParsePoint(e.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hover: %w", err)
	}
	err = m.deps.Match.Touch(func(s *game.State) { s.Hover(p.X, p.Y) })
	if errors.Is(err, match.ErrNoGame) {
		// pointer motion between games is not an error
		return nil, nil
	}
	return nil, err
}

func (m *Manager) handleSnapshot(e dispatcher.Event) (any, error) {
	return m.deps.Match.Snapshot()
}
