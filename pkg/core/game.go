// Package core holds the backend-neutral records of a played game: the game
// itself, every input event applied to it and every move request.
package core

import "time"

// Game identifies one played session.
type Game struct {
	ID          string    `json:"id"`
	Seed        uint64    `json:"seed"`
	Permutation []int     `json:"permutation"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime,omitzero"`
}

// Ended reports whether the game has been closed.
func (g *Game) Ended() bool {
	return !g.EndTime.IsZero()
}

// EventRecord is one input event as applied to the game. Seq orders events
// within a game and starts at 1.
type EventRecord struct {
	ID      uint      `json:"-"`
	GameID  string    `json:"gameId"`
	Seq     uint      `json:"seq"`
	Time    time.Time `json:"time"`
	Command string    `json:"command"`
	Args    []string  `json:"args"`
	Result  string    `json:"result,omitempty"`
}

// MoveRecord describes one move request and how the rules resolved it.
// Target is -1 when the direction led off the board or was never resolved.
type MoveRecord struct {
	ID        uint      `json:"-"`
	GameID    string    `json:"gameId"`
	Seq       uint      `json:"seq"`
	Time      time.Time `json:"time"`
	Origin    int       `json:"origin"`
	Target    int       `json:"target"`
	Direction int       `json:"direction"`
	Value     int       `json:"value"`
	Faction   string    `json:"faction"`
	Rotation  int       `json:"rotation"`
	Outcome   string    `json:"outcome"`
}
