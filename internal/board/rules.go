package board

// gate describes which directions a rotation opens up.
// Ranged directions need a ship bigger than 1; the straight one refuses a size-2 ship.
type gate struct {
	ranged   [2]Direction
	straight Direction
}

var gates = [4]gate{
	0: {ranged: [2]Direction{SouthWest, NorthWest}, straight: West},
	1: {ranged: [2]Direction{NorthWest, NorthEast}, straight: North},
	2: {ranged: [2]Direction{SouthEast, NorthEast}, straight: East},
	3: {ranged: [2]Direction{SouthWest, SouthEast}, straight: South},
}

// IsMoveLegal reports whether a ship of the given value standing on a cell with
// rotation r may move in direction d. Every direction outside the rotation's
// three open ones is illegal.
func IsMoveLegal(r Rotation, value int, d Direction) bool {
	g := gates[r%4]
	switch d {
	case g.ranged[0], g.ranged[1]:
		return value > 1
	case g.straight:
		return value != 2
	default:
		return false
	}
}

// OpenDirections lists the directions a ship of the given value may take from rotation r.
func OpenDirections(r Rotation, value int) []Direction {
	var out []Direction
	for _, d := range Directions {
		if IsMoveLegal(r, value, d) {
			out = append(out, d)
		}
	}
	return out
}
