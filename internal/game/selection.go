package game

import "github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/board"

// Turn is the sense of a rotate action.
type Turn uint8

const (
	TurnLeft Turn = iota
	TurnRight
)

func (t Turn) String() string {
	if t == TurnRight {
		return "right"
	}
	return "left"
}

// Selected returns the selected cell, if any.
func (s *State) Selected() (int, bool) {
	if s.selected < 0 {
		return -1, false
	}
	return s.selected, true
}

// Anchor returns where the selection cursor sits, if a cell is selected.
func (s *State) Anchor() (board.Point, bool) {
	if s.selected < 0 {
		return board.Point{}, false
	}
	return s.anchor, true
}

// Select makes cell i the selected one and uncovers its outdoor ship.
// Selecting while another cell is selected moves the selection.
func (s *State) Select(i int) bool {
	if !board.ValidCell(i) {
		return false
	}
	s.selected = i
	s.anchor = board.StrokeAnchor(i)
	s.cells[i].Outdoor.uncover()
	return true
}

// SelectAt selects the cell under (x, y). Points outside every cell are ignored.
func (s *State) SelectAt(x, y float64) bool {
	i, ok := board.HitTest(x, y)
	if !ok {
		return false
	}
	return s.Select(i)
}

// Deselect returns to the idle state. Revealed ships stay revealed.
func (s *State) Deselect() {
	s.selected = -1
	s.anchor = board.Point{}
}

// Rotate turns the selected cell a quarter in the given sense.
// It is a no-op when nothing is selected.
func (s *State) Rotate(t Turn) bool {
	i, ok := s.Selected()
	if !ok {
		return false
	}
	c := &s.cells[i]
	if t == TurnRight {
		c.Rotation = c.Rotation.Right()
	} else {
		c.Rotation = c.Rotation.Left()
	}
	return true
}

// Hover recomputes the highlight flag of every cell for a pointer at (x, y).
func (s *State) Hover(x, y float64) {
	hit, _ := board.HitTest(x, y)
	for i := range s.cells {
		s.cells[i].Highlighted = i == hit
	}
}
