package game

import (
	"fmt"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/board"
)

// Outcome is the result of a move request. Rejections leave the state untouched.
type Outcome uint8

const (
	Moved Outcome = iota
	RejectedFriendlyOccupant
	RejectedNoTarget
	RejectedIllegalDirection
	RejectedNoSelection
	RejectedEmptyOrigin
)

var outcomeNames = [...]string{
	Moved:                    "Moved",
	RejectedFriendlyOccupant: "RejectedFriendlyOccupant",
	RejectedNoTarget:         "RejectedNoTarget",
	RejectedIllegalDirection: "RejectedIllegalDirection",
	RejectedNoSelection:      "RejectedNoSelection",
	RejectedEmptyOrigin:      "RejectedEmptyOrigin",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(b []byte) error {
	p, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = p
	return nil
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	for i, name := range outcomeNames {
		if name == s {
			return Outcome(i), nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// Rejected reports whether the move was refused.
func (o Outcome) Rejected() bool {
	return o != Moved
}

// ApplyMove moves the outdoor ship of origin onto target.
//
// The move is refused when target shows a ship of the mover's own faction.
// Otherwise target's outdoor ship sinks into its hidden slot (dropping whatever
// was hidden there), the mover takes the outdoor slot together with origin's
// rotation, and origin's outdoor slot is emptied. Origin's hidden ship stays put.
func (s *State) ApplyMove(origin, target int) Outcome {
	if !board.ValidCell(origin) || !board.ValidCell(target) || origin == target {
		return RejectedNoTarget
	}

	from := &s.cells[origin]
	to := &s.cells[target]
	if from.Outdoor.IsPlaceholder() {
		return RejectedEmptyOrigin
	}
	if to.Outdoor.Visible && to.Outdoor.Faction == from.Outdoor.Faction {
		return RejectedFriendlyOccupant
	}

	to.Hidden = to.Outdoor
	to.Outdoor = from.Outdoor
	to.Rotation = from.Rotation
	from.Outdoor = Placeholder()
	return Moved
}

// MoveSelected moves the selected ship one step in direction d.
// A successful move clears the selection; a rejected one keeps it.
func (s *State) MoveSelected(d board.Direction) Outcome {
	origin, ok := s.Selected()
	if !ok {
		return RejectedNoSelection
	}

	c := s.cells[origin]
	if c.Outdoor.IsPlaceholder() {
		return RejectedEmptyOrigin
	}
	if !board.IsMoveLegal(c.Rotation, c.Outdoor.Value, d) {
		return RejectedIllegalDirection
	}
	target, ok := board.Neighbor(origin, d)
	if !ok {
		return RejectedNoTarget
	}

	out := s.ApplyMove(origin, target)
	if out == Moved {
		s.Deselect()
	}
	return out
}

// MoveTarget resolves where a move from the selected cell in direction d would land,
// without checking legality.
func (s *State) MoveTarget(d board.Direction) (origin, target int, ok bool) {
	origin, ok = s.Selected()
	if !ok {
		return -1, -1, false
	}
	target, ok = board.Neighbor(origin, d)
	return origin, target, ok
}
