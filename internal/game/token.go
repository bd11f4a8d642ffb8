package game

import "fmt"

// Faction is the side a ship sails for.
type Faction uint8

const (
	NonPirate Faction = iota // red
	Pirate                   // black
)

func (f Faction) String() string {
	if f == Pirate {
		return "pirate"
	}
	return "non-pirate"
}

// MarshalText implements encoding.TextMarshaler.
func (f Faction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Faction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pirate":
		*f = Pirate
	case "non-pirate":
		*f = NonPirate
	default:
		return fmt.Errorf("unknown faction %q", b)
	}
	return nil
}

// Token is a single ship. Value and Faction never change after creation.
type Token struct {
	Value   int     `json:"value"`
	Faction Faction `json:"faction"`

	// Revealed is set once the token's face has been shown to both players.
	Revealed bool `json:"revealed"`
	// Visible means the token has been uncovered at least once and is not sunk.
	// The capture rule looks at this flag.
	Visible bool `json:"visible"`
	Sunk    bool `json:"sunk"`
}

// NewToken creates a concealed, afloat ship.
func NewToken(value int, f Faction) Token {
	return Token{Value: value, Faction: f}
}

// Placeholder is the zero-value, permanently sunk token that marks "nothing here".
func Placeholder() Token {
	return Token{Value: 0, Faction: Pirate, Sunk: true}
}

// IsPlaceholder reports whether t stands for an empty slot.
func (t Token) IsPlaceholder() bool {
	return t.Value == 0
}

// uncover shows the token's face. Sunk tokens stay hidden.
func (t *Token) uncover() {
	if t.Sunk {
		return
	}
	t.Revealed = true
	t.Visible = true
}
