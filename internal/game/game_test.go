package game

import (
	"encoding/json"
	"testing"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Standard pool indices, see StandardPool.
const (
	np1 = 0
	np2 = 2
	np3 = 4
	p1  = 6
	p2  = 8
	p3  = 10
)

// dealt builds a state where the cells in fixed get the given pool indices and
// every other cell takes the remaining indices in ascending order.
func dealt(t *testing.T, fixed map[int]int) *State {
	t.Helper()
	var perm [board.CellCount]int
	used := map[int]bool{}
	for _, p := range fixed {
		used[p] = true
	}
	next := 0
	for i := range perm {
		if p, ok := fixed[i]; ok {
			perm[i] = p
			continue
		}
		for used[next] {
			next++
		}
		perm[i] = next
		used[next] = true
	}
	s, err := NewFromPermutation(perm)
	require.NoError(t, err)
	return s
}

func center(i int) (float64, float64) {
	o := board.Origins[i]
	return o.X + board.CellSize.X/2, o.Y + board.CellSize.Y/2
}

func TestNew_Multiset(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		s := New(seed)

		counts := map[Token]int{}
		for _, c := range s.Cells() {
			assert.False(t, c.Outdoor.IsPlaceholder())
			assert.True(t, c.Hidden.IsPlaceholder())
			assert.True(t, c.Hidden.Sunk)
			assert.Equal(t, board.Rotation(0), c.Rotation)
			counts[c.Outdoor]++
		}
		require.Len(t, counts, 6, "seed %d", seed)
		for tok, n := range counts {
			assert.Equal(t, 2, n, "seed %d token %+v", seed, tok)
		}

		_, selected := s.Selected()
		assert.False(t, selected)
	}
}

func TestNew_CellIndices(t *testing.T) {
	s := New(7)
	for i, c := range s.Cells() {
		assert.Equal(t, i, c.Index)
	}
}

func TestShuffle_Deterministic(t *testing.T) {
	assert.Equal(t, Shuffle(42), Shuffle(42))
	assert.Equal(t, New(42).Cells(), New(42).Cells())
	assert.NotEqual(t, Shuffle(1), Shuffle(2))
}

func TestShuffle_IsPermutation(t *testing.T) {
	for seed := uint64(0); seed < 500; seed++ {
		assert.NoError(t, validatePermutation(Shuffle(seed)))
	}
}

func TestShuffle_Uniform(t *testing.T) {
	const runs = 12000
	var counts [board.CellCount][board.CellCount]int
	for seed := uint64(0); seed < runs; seed++ {
		for cell, p := range Shuffle(seed) {
			counts[cell][p]++
		}
	}

	// Every (cell, pool index) pair expects runs/12 = 1000 hits.
	for cell := range counts {
		for p, n := range counts[cell] {
			assert.InDelta(t, 1000, n, 200, "cell %d pool %d", cell, p)
		}
	}
}

func TestNewFromPermutation_Invalid(t *testing.T) {
	tests := []struct {
		name string
		perm [board.CellCount]int
	}{
		{"duplicate", [board.CellCount]int{0, 0, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
		{"out of range", [board.CellCount]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 12}},
		{"negative", [board.CellCount]int{-1, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewFromPermutation(tt.perm)
			assert.ErrorIs(t, err, ErrInvalidPermutation)
			assert.Nil(t, s)
		})
	}
}

func TestNewFromPool_Invalid(t *testing.T) {
	identity := [board.CellCount]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

	tests := []struct {
		name   string
		mutate func(p *[board.CellCount]Token)
	}{
		{"placeholder in pool", func(p *[board.CellCount]Token) { p[0] = Placeholder() }},
		{"value too big", func(p *[board.CellCount]Token) { p[3] = NewToken(4, NonPirate) }},
		{"unbalanced factions", func(p *[board.CellCount]Token) { p[11] = NewToken(3, NonPirate) }},
		{"three of a kind", func(p *[board.CellCount]Token) { p[2] = NewToken(1, NonPirate) }},
		{"sunk ship", func(p *[board.CellCount]Token) { p[5].Sunk = true }},
		{"unknown faction", func(p *[board.CellCount]Token) { p[7].Faction = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := StandardPool()
			tt.mutate(&pool)
			s, err := NewFromPool(pool, identity)
			assert.ErrorIs(t, err, ErrInvalidPool)
			assert.Nil(t, s)
		})
	}
}

func TestSelect(t *testing.T) {
	s := New(3)

	require.True(t, s.Select(4))
	i, ok := s.Selected()
	assert.True(t, ok)
	assert.Equal(t, 4, i)

	a, ok := s.Anchor()
	assert.True(t, ok)
	assert.Equal(t, board.StrokeAnchor(4), a)

	c := s.Cell(4)
	assert.True(t, c.Outdoor.Revealed)
	assert.True(t, c.Outdoor.Visible)

	// Selecting again moves the selection.
	require.True(t, s.Select(9))
	i, _ = s.Selected()
	assert.Equal(t, 9, i)

	assert.False(t, s.Select(12))
	assert.False(t, s.Select(-1))
	i, _ = s.Selected()
	assert.Equal(t, 9, i)
}

func TestSelectAt(t *testing.T) {
	s := New(3)

	x, y := center(7)
	require.True(t, s.SelectAt(x, y))
	i, _ := s.Selected()
	assert.Equal(t, 7, i)
}

func TestSelectAt_OutsideStaysIdle(t *testing.T) {
	s := New(3)
	before := s.Clone()

	for _, p := range []board.Point{{0, 0}, {10, 10}, {500, 500}, {100, 100}, {275, 100}} {
		assert.False(t, s.SelectAt(p.X, p.Y))
	}
	_, ok := s.Selected()
	assert.False(t, ok)
	assert.Equal(t, before, s)
}

func TestDeselect_RevealedIsSticky(t *testing.T) {
	s := New(3)
	s.Select(2)
	s.Deselect()

	_, ok := s.Selected()
	assert.False(t, ok)
	_, ok = s.Anchor()
	assert.False(t, ok)
	assert.True(t, s.Cell(2).Outdoor.Revealed)
}

func TestRotate(t *testing.T) {
	s := New(5)

	// Idle rotates are no-ops.
	before := s.Clone()
	assert.False(t, s.Rotate(TurnRight))
	assert.False(t, s.Rotate(TurnLeft))
	assert.Equal(t, before, s)

	s.Select(6)
	require.True(t, s.Rotate(TurnRight))
	assert.Equal(t, board.Rotation(1), s.Cell(6).Rotation)
	require.True(t, s.Rotate(TurnLeft))
	require.True(t, s.Rotate(TurnLeft))
	assert.Equal(t, board.Rotation(3), s.Cell(6).Rotation)

	for _, turn := range []Turn{TurnLeft, TurnRight} {
		start := s.Cell(6).Rotation
		for range 4 {
			s.Rotate(turn)
		}
		assert.Equal(t, start, s.Cell(6).Rotation, turn.String())
	}

	// Only the selected cell turns.
	for i, c := range s.Cells() {
		if i != 6 {
			assert.Equal(t, board.Rotation(0), c.Rotation)
		}
	}
}

func TestHover(t *testing.T) {
	s := New(1)

	x, y := center(3)
	s.Hover(x, y)
	for i, c := range s.Cells() {
		assert.Equal(t, i == 3, c.Highlighted, "cell %d", i)
	}

	s.Hover(0, 0)
	for _, c := range s.Cells() {
		assert.False(t, c.Highlighted)
	}

	// Hovering does not touch the selection.
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestMoveSelected_NoSelection(t *testing.T) {
	s := New(9)
	before := s.Clone()
	assert.Equal(t, RejectedNoSelection, s.MoveSelected(board.SouthWest))
	assert.Equal(t, before, s)
}

// Cells 0 and 1 are east neighbours, but east is closed at rotation 0.
func TestMoveSelected_EastAtRotationZeroIsIllegal(t *testing.T) {
	s := dealt(t, map[int]int{0: p3, 1: np2})
	s.Select(0)
	before := s.Clone()

	target, ok := board.Neighbor(0, board.East)
	require.True(t, ok)
	require.Equal(t, 1, target)

	assert.Equal(t, RejectedIllegalDirection, s.MoveSelected(board.East))
	assert.Equal(t, before, s)

	i, ok := s.Selected()
	assert.True(t, ok)
	assert.Equal(t, 0, i)
}

func TestMoveSelected_NorthAtRotationOneNeedsValueOtherThanTwo(t *testing.T) {
	s := dealt(t, map[int]int{7: p2})
	s.Select(7)
	s.Rotate(TurnRight)
	before := s.Clone()

	assert.Equal(t, RejectedIllegalDirection, s.MoveSelected(board.North))
	assert.Equal(t, before, s)
}

func TestMoveSelected_NoTarget(t *testing.T) {
	// Cell 0 at rotation 0: west is open for value 1 but runs into the missing corner.
	s := dealt(t, map[int]int{0: np1})
	s.Select(0)
	before := s.Clone()

	assert.Equal(t, RejectedNoTarget, s.MoveSelected(board.West))
	assert.Equal(t, before, s)
}

func TestMoveSelected_Moved(t *testing.T) {
	s := dealt(t, map[int]int{0: p3, 2: np2})
	s.Select(0)
	s.Rotate(TurnRight)
	s.Rotate(TurnLeft)

	mover := s.Cell(0).Outdoor
	prior := s.Cell(2).Outdoor
	originHidden := s.Cell(0).Hidden

	// Cell 0 south-west is cell 2.
	assert.Equal(t, Moved, s.MoveSelected(board.SouthWest))

	from, to := s.Cell(0), s.Cell(2)
	assert.True(t, from.Outdoor.IsPlaceholder())
	assert.Equal(t, originHidden, from.Hidden)
	assert.Equal(t, mover, to.Outdoor)
	assert.Equal(t, from.Rotation, to.Rotation)
	assert.Equal(t, prior, to.Hidden)

	_, ok := s.Selected()
	assert.False(t, ok, "a successful move consumes the selection")
}

func TestMoveSelected_CarriesRotation(t *testing.T) {
	// Cell 3 at rotation 2 may go south-east (value > 1) onto cell 8.
	s := dealt(t, map[int]int{3: np3, 8: p1})
	s.Select(3)
	s.Rotate(TurnRight)
	s.Rotate(TurnRight)

	assert.Equal(t, Moved, s.MoveSelected(board.SouthEast))
	assert.Equal(t, board.Rotation(2), s.Cell(8).Rotation)
	assert.Equal(t, NewToken(1, Pirate), s.Cell(8).Hidden)
}

func TestMoveSelected_EmptyOrigin(t *testing.T) {
	s := dealt(t, map[int]int{0: p3, 2: np2})
	s.Select(0)
	require.Equal(t, Moved, s.MoveSelected(board.SouthWest))

	s.Select(0)
	assert.False(t, s.Cell(0).Outdoor.Revealed, "placeholders never uncover")
	before := s.Clone()
	assert.Equal(t, RejectedEmptyOrigin, s.MoveSelected(board.SouthWest))
	assert.Equal(t, before, s)
}

func TestCaptureRule(t *testing.T) {
	tests := []struct {
		name     string
		target   int
		uncover  bool
		expected Outcome
	}{
		{"concealed friendly", p2, false, Moved},
		{"shown friendly", p2, true, RejectedFriendlyOccupant},
		{"concealed enemy", np2, false, Moved},
		{"shown enemy", np2, true, Moved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := dealt(t, map[int]int{0: p3, 2: tt.target})
			if tt.uncover {
				s.Select(2)
			}
			s.Select(0)
			before := s.Clone()

			out := s.MoveSelected(board.SouthWest)
			assert.Equal(t, tt.expected, out)
			if out.Rejected() {
				assert.Equal(t, before, s)
				i, ok := s.Selected()
				assert.True(t, ok)
				assert.Equal(t, 0, i)
			}
		})
	}
}

func TestApplyMove_Rejections(t *testing.T) {
	s := New(11)
	before := s.Clone()

	assert.Equal(t, RejectedNoTarget, s.ApplyMove(3, 3))
	assert.Equal(t, RejectedNoTarget, s.ApplyMove(-1, 3))
	assert.Equal(t, RejectedNoTarget, s.ApplyMove(3, 12))
	assert.Equal(t, before, s)
}

// A ship landing on an occupied cell pushes the previous outdoor ship into the
// hidden slot. Whatever was hidden there before drops off the board.
func TestApplyMove_TargetOutdoorSinksIntoHidden(t *testing.T) {
	s := dealt(t, map[int]int{3: p1, 4: np3, 5: p2})

	require.Equal(t, Moved, s.ApplyMove(3, 4))
	assert.Equal(t, NewToken(1, Pirate), s.Cell(4).Outdoor)
	assert.Equal(t, NewToken(3, NonPirate), s.Cell(4).Hidden)

	// The pirate on 4 is still concealed, so a friendly ship may land on it.
	require.Equal(t, Moved, s.ApplyMove(5, 4))
	assert.Equal(t, NewToken(2, Pirate), s.Cell(4).Outdoor)
	assert.Equal(t, NewToken(1, Pirate), s.Cell(4).Hidden)

	// Origins keep their hidden layer.
	assert.True(t, s.Cell(3).Outdoor.IsPlaceholder())
	assert.True(t, s.Cell(3).Hidden.IsPlaceholder())
}

func TestApplyMove_OntoEmptyCell(t *testing.T) {
	s := dealt(t, map[int]int{3: p1, 4: np3})
	require.Equal(t, Moved, s.ApplyMove(4, 3))
	require.Equal(t, Moved, s.ApplyMove(3, 4))

	assert.Equal(t, NewToken(3, NonPirate), s.Cell(4).Outdoor)
	assert.True(t, s.Cell(4).Hidden.IsPlaceholder())
	assert.Equal(t, NewToken(1, Pirate), s.Cell(3).Hidden)
}

func TestScores_NoScenarioIncrementsScore(t *testing.T) {
	s := dealt(t, map[int]int{0: p3, 2: np2})
	s.Select(2)
	s.Select(0)
	require.Equal(t, Moved, s.MoveSelected(board.SouthWest))

	assert.Zero(t, s.Score(Pirate))
	assert.Zero(t, s.Score(NonPirate))
	assert.Equal(t, Scores{}, s.Snapshot().Scores)
}

func TestSnapshot(t *testing.T) {
	s := dealt(t, map[int]int{0: p3, 2: np2})

	snap := s.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.Nil(t, snap.Anchor)
	assert.Empty(t, snap.Open)
	for i, c := range snap.Cells {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, VisualBack, c.Outdoor.Visual)
		assert.False(t, c.HiddenPresent)
	}

	s.Select(0)
	snap = s.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, 0, *snap.Selected)
	require.NotNil(t, snap.Anchor)
	assert.Equal(t, board.StrokeAnchor(0), *snap.Anchor)
	assert.Equal(t, VisualFace, snap.Cells[0].Outdoor.Visual)
	assert.Equal(t, []board.Direction{board.SouthWest, board.West, board.NorthWest}, snap.Open)

	require.Equal(t, Moved, s.MoveSelected(board.SouthWest))
	snap = s.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.Empty(t, snap.Open)
	assert.Equal(t, VisualEmpty, snap.Cells[0].Outdoor.Visual)
	assert.True(t, snap.Cells[2].HiddenPresent)
	assert.Equal(t, VisualFace, snap.Cells[2].Outdoor.Visual)

	// Snapshots are copies.
	snap.Cells[2].Rotation = 3
	assert.Equal(t, board.Rotation(0), s.Cell(2).Rotation)
}

func TestViewOf_FaceFollowsVisible(t *testing.T) {
	tok := NewToken(2, Pirate)
	assert.Equal(t, VisualBack, viewOf(tok).Visual)

	tok.Revealed = true
	assert.Equal(t, VisualBack, viewOf(tok).Visual, "revealed alone does not show the face")

	tok.Visible = true
	assert.Equal(t, VisualFace, viewOf(tok).Visual)

	tok.Sunk = true
	assert.Equal(t, VisualEmpty, viewOf(tok).Visual)
	assert.Equal(t, VisualEmpty, viewOf(Placeholder()).Visual)
}

func TestSnapshot_JSON(t *testing.T) {
	s := dealt(t, map[int]int{0: p3})
	s.Select(0)

	b, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)

	var decoded struct {
		Selected *int `json:"selected"`
		Cells    []struct {
			Outdoor struct {
				Faction string `json:"faction"`
				Visual  string `json:"visual"`
			} `json:"outdoor"`
		} `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.NotNil(t, decoded.Selected)
	assert.Equal(t, 0, *decoded.Selected)
	require.Len(t, decoded.Cells, board.CellCount)
	assert.Equal(t, "pirate", decoded.Cells[0].Outdoor.Faction)
	assert.Equal(t, "face", decoded.Cells[0].Outdoor.Visual)
}

func TestOutcome_Text(t *testing.T) {
	for o := Moved; o <= RejectedEmptyOrigin; o++ {
		p, err := ParseOutcome(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, p)
	}
	_, err := ParseOutcome("Sunk")
	assert.Error(t, err)
	assert.Equal(t, "Outcome(42)", Outcome(42).String())
	assert.False(t, Moved.Rejected())
	assert.True(t, RejectedNoTarget.Rejected())
}

func TestFaction_UnmarshalText(t *testing.T) {
	var f Faction
	require.NoError(t, f.UnmarshalText([]byte("pirate")))
	assert.Equal(t, Pirate, f)
	require.NoError(t, f.UnmarshalText([]byte("non-pirate")))
	assert.Equal(t, NonPirate, f)
	assert.Error(t, f.UnmarshalText([]byte("navy")))
}
