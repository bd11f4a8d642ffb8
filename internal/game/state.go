// Package game is the rules engine: the twelve cell stacks, move execution and
// the selection state machine. It has no knowledge of rendering or I/O.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/board"
)

var (
	// ErrInvalidPool is returned when the token pool is not the standard 6+6 split.
	ErrInvalidPool = errors.New("invalid token pool")
	// ErrInvalidPermutation is returned when the assignment is not a permutation of 0..11.
	ErrInvalidPermutation = errors.New("invalid permutation")
)

// pcgStream is the fixed second word of the PCG state; only the seed varies.
const pcgStream = 0x7ae1_05b1_7017_a5e5

// Cell is one board position: a two-level stack plus its rotation.
type Cell struct {
	Index    int            `json:"index"`
	Outdoor  Token          `json:"outdoor"`
	Hidden   Token          `json:"hidden"`
	Rotation board.Rotation `json:"rotation"`

	// Highlighted is true while the pointer is over the cell. Presentation hint only.
	Highlighted bool `json:"highlighted"`
}

// State owns the board. A zero State is not usable; build one with New.
type State struct {
	cells    [board.CellCount]Cell
	selected int
	anchor   board.Point
	scores   [2]int
}

// StandardPool returns the twelve ships in their canonical order:
// non-pirate 1,1,2,2,3,3 followed by pirate 1,1,2,2,3,3.
func StandardPool() [board.CellCount]Token {
	var pool [board.CellCount]Token
	for i := range pool {
		f := NonPirate
		if i >= 6 {
			f = Pirate
		}
		pool[i] = NewToken(i%6/2+1, f)
	}
	return pool
}

// Shuffle returns a uniformly random permutation of 0..11 using a Fisher-Yates
// shuffle driven by a PCG source seeded with seed.
func Shuffle(seed uint64) [board.CellCount]int {
	rng := rand.New(rand.NewPCG(seed, pcgStream))

	var perm [board.CellCount]int
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < board.CellCount; i++ {
		j := i + rng.IntN(board.CellCount-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// New deals the standard pool onto the board in the order given by Shuffle(seed).
func New(seed uint64) *State {
	s, err := NewFromPermutation(Shuffle(seed))
	if err != nil {
		// Shuffle always yields a permutation of the standard pool.
		panic(err)
	}
	return s
}

// NewFromPermutation deals the standard pool so that cell i holds pool[perm[i]].
func NewFromPermutation(perm [board.CellCount]int) (*State, error) {
	return NewFromPool(StandardPool(), perm)
}

// NewFromPool deals pool onto the board so that cell i holds pool[perm[i]].
// The pool must be the standard 6+6 split and perm a permutation of 0..11.
func NewFromPool(pool [board.CellCount]Token, perm [board.CellCount]int) (*State, error) {
	if err := validatePermutation(perm); err != nil {
		return nil, err
	}
	if err := validatePool(pool); err != nil {
		return nil, err
	}

	s := &State{selected: -1}
	for i := range s.cells {
		s.cells[i] = Cell{
			Index:   i,
			Outdoor: pool[perm[i]],
			Hidden:  Placeholder(),
		}
	}
	return s, nil
}

func validatePermutation(perm [board.CellCount]int) error {
	var seen [board.CellCount]bool
	for i, p := range perm {
		if p < 0 || p >= board.CellCount {
			return fmt.Errorf("%w: index %d maps to %d", ErrInvalidPermutation, i, p)
		}
		if seen[p] {
			return fmt.Errorf("%w: %d appears twice", ErrInvalidPermutation, p)
		}
		seen[p] = true
	}
	return nil
}

func validatePool(pool [board.CellCount]Token) error {
	var counts [2][4]int
	for i, t := range pool {
		if t.Value < 1 || t.Value > 3 || t.Faction > Pirate {
			return fmt.Errorf("%w: token %d has value %d faction %d", ErrInvalidPool, i, t.Value, t.Faction)
		}
		if t.Sunk {
			return fmt.Errorf("%w: token %d is sunk", ErrInvalidPool, i)
		}
		counts[t.Faction][t.Value]++
	}
	for f := range counts {
		for v := 1; v <= 3; v++ {
			if counts[f][v] != 2 {
				return fmt.Errorf("%w: %s has %d ships of value %d", ErrInvalidPool, Faction(f), counts[f][v], v)
			}
		}
	}
	return nil
}

// Cell returns a copy of cell i.
func (s *State) Cell(i int) Cell {
	return s.cells[i]
}

// Cells returns a copy of every cell.
func (s *State) Cells() [board.CellCount]Cell {
	return s.cells
}

// Score returns the points of faction f. No rule awards points yet, so this is always 0.
func (s *State) Score(f Faction) int {
	return s.scores[f]
}

// Clone returns an independent copy of the state.
func (s *State) Clone() *State {
	c := *s
	return &c
}
