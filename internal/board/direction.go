package board

// Direction is a compass bearing in numpad convention (5, the center, is not a direction).
type Direction uint8

const (
	SouthWest Direction = 1
	South     Direction = 2
	SouthEast Direction = 3
	West      Direction = 4
	East      Direction = 6
	NorthWest Direction = 7
	North     Direction = 8
	NorthEast Direction = 9
)

// Directions lists every movement direction in numpad order.
var Directions = []Direction{SouthWest, South, SouthEast, West, East, NorthWest, North, NorthEast}

// step holds the (row, col) delta of each direction on the board grid.
var step = map[Direction][2]int{
	SouthWest: {1, -1},
	South:     {1, 0},
	SouthEast: {1, 1},
	West:      {0, -1},
	East:      {0, 1},
	NorthWest: {-1, -1},
	North:     {-1, 0},
	NorthEast: {-1, 1},
}

// Valid reports whether d is one of the eight compass bearings.
func (d Direction) Valid() bool {
	_, ok := step[d]
	return ok
}

func (d Direction) String() string {
	switch d {
	case SouthWest:
		return "SW"
	case South:
		return "S"
	case SouthEast:
		return "SE"
	case West:
		return "W"
	case East:
		return "E"
	case NorthWest:
		return "NW"
	case North:
		return "N"
	case NorthEast:
		return "NE"
	default:
		return "?"
	}
}

// Rotation is a cell's quarter-turn state, 0..3.
type Rotation uint8

// Right turns clockwise: 0→1→2→3→0.
func (r Rotation) Right() Rotation {
	return (r + 1) % 4
}

// Left turns counter-clockwise: 0→3→2→1→0.
func (r Rotation) Left() Rotation {
	return (r + 3) % 4
}
