// Package board holds the static geometry of the twelve-cell board and the
// rotation-dependent movement rules. Nothing in here is mutable.
package board

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// CellCount is the number of cells on the board.
const CellCount = 12

// Point is a position in board pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CellSize is the width and height of every cell rectangle.
var CellSize = Point{X: 80, Y: 84}

// Origins are the top-left corners of the cells, numbered left to right, top to bottom.
var Origins = [CellCount]Point{
	{185, 88},
	{282, 87},
	{86, 185},
	{184, 183},
	{282, 183},
	{379, 183},
	{86, 282},
	{183, 282},
	{281, 282},
	{379, 281},
	{183, 381},
	{281, 379},
}

// strokeOffset is subtracted from a cell origin to place the selection cursor.
var strokeOffset = Point{X: 5, Y: 7}

// gridPos is the (row, col) of each cell on the 4x4 grid. The four corners are absent:
//
//	_  0  1  _
//	2  3  4  5
//	6  7  8  9
//	_ 10 11  _
var gridPos = [CellCount][2]int{
	{0, 1}, {0, 2},
	{1, 0}, {1, 1}, {1, 2}, {1, 3},
	{2, 0}, {2, 1}, {2, 2}, {2, 3},
	{3, 1}, {3, 2},
}

// cellAt is the inverse of gridPos; -1 marks a missing corner.
var cellAt = func() [4][4]int {
	var g [4][4]int
	for r := range g {
		for c := range g[r] {
			g[r][c] = -1
		}
	}
	for i, p := range gridPos {
		g[p[0]][p[1]] = i
	}
	return g
}()

var rects = func() [CellCount]geom.Envelope {
	var out [CellCount]geom.Envelope
	for i, o := range Origins {
		env, err := geom.NewEnvelope([]geom.XY{
			{X: o.X, Y: o.Y},
			{X: o.X + CellSize.X, Y: o.Y + CellSize.Y},
		})
		if err != nil {
			panic(fmt.Sprintf("board: cell %d rectangle: %v", i, err))
		}
		out[i] = env
	}
	return out
}()

// ValidCell reports whether i addresses a board cell.
func ValidCell(i int) bool {
	return i >= 0 && i < CellCount
}

// HitTest returns the lowest-indexed cell whose rectangle contains (x, y).
// Bounds are inclusive on both edges.
func HitTest(x, y float64) (int, bool) {
	p := geom.XY{X: x, Y: y}
	for i := range rects {
		if rects[i].Contains(p) {
			return i, true
		}
	}
	return -1, false
}

// Neighbor returns the cell reached from cell i by one step in direction d.
// The second result is false if the step leaves the board or d is not a direction.
func Neighbor(i int, d Direction) (int, bool) {
	if !ValidCell(i) {
		return -1, false
	}
	delta, ok := step[d]
	if !ok {
		return -1, false
	}
	r, c := gridPos[i][0]+delta[0], gridPos[i][1]+delta[1]
	if r < 0 || r >= 4 || c < 0 || c >= 4 {
		return -1, false
	}
	target := cellAt[r][c]
	return target, target >= 0
}

// StrokeAnchor is where the selection cursor is drawn for cell i.
func StrokeAnchor(i int) Point {
	o := Origins[i]
	return Point{X: o.X - strokeOffset.X, Y: o.Y - strokeOffset.Y}
}
