// Package convert maps between the backend-neutral journal records and their gorm rows.
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/model"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/pkg/core"
	"gorm.io/datatypes"
)

func jsonOf(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

// GameToGorm converts a core.Game to its row.
func GameToGorm(g core.Game) model.Game {
	perm := g.Permutation
	if perm == nil {
		perm = []int{}
	}
	row := model.Game{
		ID:          g.ID,
		Seed:        g.Seed,
		Permutation: jsonOf(perm),
		StartTime:   g.StartTime,
	}
	if !g.EndTime.IsZero() {
		end := g.EndTime
		row.EndTime = &end
	}
	return row
}

// GameToCore converts a row back to a core.Game.
func GameToCore(g model.Game) (core.Game, error) {
	out := core.Game{
		ID:        g.ID,
		Seed:      g.Seed,
		StartTime: g.StartTime,
	}
	if len(g.Permutation) > 0 {
		if err := json.Unmarshal(g.Permutation, &out.Permutation); err != nil {
			return core.Game{}, fmt.Errorf("game %s: bad permutation: %w", g.ID, err)
		}
	}
	if g.EndTime != nil {
		out.EndTime = *g.EndTime
	}
	return out, nil
}

// EventToGorm converts a core.EventRecord to its row.
func EventToGorm(e core.EventRecord) model.EventRecord {
	args := e.Args
	if args == nil {
		args = []string{}
	}
	return model.EventRecord{
		ID:      e.ID,
		GameID:  e.GameID,
		Seq:     e.Seq,
		Time:    e.Time,
		Command: e.Command,
		Args:    jsonOf(args),
		Result:  e.Result,
	}
}

// EventToCore converts a row back to a core.EventRecord.
func EventToCore(e model.EventRecord) (core.EventRecord, error) {
	out := core.EventRecord{
		ID:      e.ID,
		GameID:  e.GameID,
		Seq:     e.Seq,
		Time:    e.Time,
		Command: e.Command,
		Result:  e.Result,
	}
	if len(e.Args) > 0 {
		if err := json.Unmarshal(e.Args, &out.Args); err != nil {
			return core.EventRecord{}, fmt.Errorf("event %d: bad args: %w", e.Seq, err)
		}
	}
	return out, nil
}

// MoveToGorm converts a core.MoveRecord to its row.
func MoveToGorm(m core.MoveRecord) model.MoveRecord {
	return model.MoveRecord{
		ID:        m.ID,
		GameID:    m.GameID,
		Seq:       m.Seq,
		Time:      m.Time,
		Origin:    m.Origin,
		Target:    m.Target,
		Direction: m.Direction,
		Value:     m.Value,
		Faction:   m.Faction,
		Rotation:  m.Rotation,
		Outcome:   m.Outcome,
	}
}

// MoveToCore converts a row back to a core.MoveRecord.
func MoveToCore(m model.MoveRecord) core.MoveRecord {
	return core.MoveRecord{
		ID:        m.ID,
		GameID:    m.GameID,
		Seq:       m.Seq,
		Time:      m.Time,
		Origin:    m.Origin,
		Target:    m.Target,
		Direction: m.Direction,
		Value:     m.Value,
		Faction:   m.Faction,
		Rotation:  m.Rotation,
		Outcome:   m.Outcome,
	}
}
