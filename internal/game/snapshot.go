package game

import "github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/board"

// Visual tells a renderer which face of a ship to draw.
type Visual string

const (
	VisualEmpty Visual = "empty" // sunk or placeholder, draw nothing
	VisualBack  Visual = "back"  // concealed
	VisualFace  Visual = "face"  // identity shown
)

// TokenView is the render-facing view of a ship.
type TokenView struct {
	Value    int     `json:"value"`
	Faction  Faction `json:"faction"`
	Visual   Visual  `json:"visual"`
	Revealed bool    `json:"revealed"`
	Visible  bool    `json:"visible"`
	Sunk     bool    `json:"sunk"`
}

// CellView is the render-facing view of a cell.
type CellView struct {
	Index         int            `json:"index"`
	Outdoor       TokenView      `json:"outdoor"`
	HiddenPresent bool           `json:"hiddenPresent"`
	Rotation      board.Rotation `json:"rotation"`
	Highlighted   bool           `json:"highlighted"`
}

// Scores holds the per-faction counters.
type Scores struct {
	NonPirate int `json:"nonPirate"`
	Pirate    int `json:"pirate"`
}

// Snapshot is an immutable copy of everything a frame needs.
type Snapshot struct {
	Cells    [board.CellCount]CellView `json:"cells"`
	Selected *int                      `json:"selected,omitempty"`
	Anchor   *board.Point              `json:"anchor,omitempty"`
	// Open lists the directions the selected ship may take.
	Open     []board.Direction         `json:"open,omitempty"`
	Scores   Scores                    `json:"scores"`
}

func viewOf(t Token) TokenView {
	v := TokenView{
		Value:    t.Value,
		Faction:  t.Faction,
		Revealed: t.Revealed,
		Visible:  t.Visible,
		Sunk:     t.Sunk,
	}
	switch {
	case t.Sunk:
		v.Visual = VisualEmpty
	case t.Visible:
		v.Visual = VisualFace
	default:
		v.Visual = VisualBack
	}
	return v
}

// Snapshot captures the current state for rendering.
func (s *State) Snapshot() Snapshot {
	var snap Snapshot
	for i, c := range s.cells {
		snap.Cells[i] = CellView{
			Index:         c.Index,
			Outdoor:       viewOf(c.Outdoor),
			HiddenPresent: !c.Hidden.IsPlaceholder(),
			Rotation:      c.Rotation,
			Highlighted:   c.Highlighted,
		}
	}
	if i, ok := s.Selected(); ok {
		snap.Selected = &i
		a := s.anchor
		snap.Anchor = &a
		c := s.cells[i]
		snap.Open = board.OpenDirections(c.Rotation, c.Outdoor.Value)
	}
	snap.Scores = Scores{
		NonPirate: s.scores[NonPirate],
		Pirate:    s.scores[Pirate],
	}
	return snap
}
