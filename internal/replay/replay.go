// Package replay re-applies a recorded journal to a fresh game and checks that
// the game resolves every event the same way it did the first time.
package replay

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/config"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/dispatcher"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/game"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/match"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage/memory"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/worker"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/pkg/core"
)

// ErrPermutation is returned when the recorded seed no longer deals the
// recorded board.
var ErrPermutation = errors.New("replay: seed deals a different board than recorded")

// Mismatch is one event whose replayed result differs from the recorded one.
// Got is empty when the replay never produced the event.
type Mismatch struct {
	Seq     uint   `json:"seq"`
	Command string `json:"command"`
	Want    string `json:"want"`
	Got     string `json:"got"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("seq %d %s: recorded %q, replayed %q", m.Seq, m.Command, m.Want, m.Got)
}

// Report is the outcome of a replay.
type Report struct {
	Game       core.Game     `json:"game"`
	Events     int           `json:"events"`
	Mismatches []Mismatch    `json:"mismatches,omitempty"`
	Snapshot   game.Snapshot `json:"snapshot"`
}

// OK reports whether every event replayed to its recorded result.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Run replays j. The journal is not modified. Hover is never journaled, so
// highlight flags in the final snapshot are always clear.
func Run(j storage.Journal, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	events := slices.Clone(j.Events)
	slices.SortStableFunc(events, func(a, b core.EventRecord) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})

	rec := memory.New(config.MemoryConfig{})
	start := j.Game.StartTime
	mgr, err := worker.NewManager(worker.Dependencies{
		Match:      match.NewContext(),
		Logger:     logger,
		Now:        func() time.Time { return start },
		ScriptMode: true,
	}, rec)
	if err != nil {
		return Report{}, err
	}

	d, err := dispatcher.New(logger)
	if err != nil {
		return Report{}, err
	}
	mgr.RegisterHandlers(d)
	defer d.Close()

	res, err := d.Dispatch(dispatcher.Event{
		Command:   worker.CmdNewGame,
		Args:      []string{strconv.FormatUint(j.Game.Seed, 10)},
		Timestamp: start,
	})
	if err != nil {
		return Report{}, fmt.Errorf("dealing game %s: %w", j.Game.ID, err)
	}
	dealt := res.(core.Game)
	if len(j.Game.Permutation) > 0 && !slices.Equal(dealt.Permutation, j.Game.Permutation) {
		return Report{}, fmt.Errorf("%w: game %s seed %d", ErrPermutation, j.Game.ID, j.Game.Seed)
	}

	report := Report{Game: j.Game, Events: len(events)}
	failed := map[uint]string{}
	for _, e := range events {
		_, err := d.Dispatch(dispatcher.Event{Command: e.Command, Args: e.Args, Timestamp: e.Time})
		if err != nil {
			failed[e.Seq] = "error: " + err.Error()
		}
	}

	replayed, _ := rec.Journal()
	got := make(map[uint]string, len(replayed.Events))
	for _, e := range replayed.Events {
		got[e.Seq] = e.Result
	}
	for _, e := range events {
		r, ok := got[e.Seq]
		if msg, bad := failed[e.Seq]; bad && !ok {
			r = msg
		}
		if !ok || r != e.Result {
			report.Mismatches = append(report.Mismatches, Mismatch{Seq: e.Seq, Command: e.Command, Want: e.Result, Got: r})
		}
	}

	snap, err := mgr.Match().Snapshot()
	if err != nil {
		return report, err
	}
	report.Snapshot = snap

	logger.Info("replay complete", "game", j.Game.ID, "events", report.Events, "mismatches", len(report.Mismatches))
	return report, nil
}
