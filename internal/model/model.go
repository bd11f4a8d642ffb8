// Package model holds the gorm table definitions of the game journal.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// DatabaseModels lists every table of the journal schema, in migration order.
var DatabaseModels = []any{
	&Game{},
	&EventRecord{},
	&MoveRecord{},
}

// Game is one dealt board. Permutation is the JSON array of pool indices per cell.
type Game struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	Seed        uint64         `json:"seed"`
	Permutation datatypes.JSON `json:"permutation"`
	StartTime   time.Time      `json:"startTime" gorm:"index"`
	EndTime     *time.Time     `json:"endTime"`
}

func (*Game) TableName() string {
	return "games"
}

// EventRecord is one applied input event. Args is a JSON array of strings.
type EventRecord struct {
	ID      uint           `json:"id" gorm:"primarykey;autoIncrement"`
	GameID  string         `json:"gameId" gorm:"size:36;index:idx_event_game_seq,priority:1"`
	Game    Game           `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"-"`
	Seq     uint           `json:"seq" gorm:"index:idx_event_game_seq,priority:2"`
	Time    time.Time      `json:"time"`
	Command string         `json:"command" gorm:"size:32"`
	Args    datatypes.JSON `json:"args"`
	Result  string         `json:"result" gorm:"size:64"`
}

func (*EventRecord) TableName() string {
	return "event_records"
}

// MoveRecord is one move request and its outcome.
type MoveRecord struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement"`
	GameID    string    `json:"gameId" gorm:"size:36;index:idx_move_game_seq,priority:1"`
	Game      Game      `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"-"`
	Seq       uint      `json:"seq" gorm:"index:idx_move_game_seq,priority:2"`
	Time      time.Time `json:"time"`
	Origin    int       `json:"origin"`
	Target    int       `json:"target"`
	Direction int       `json:"direction"`
	Value     int       `json:"value"`
	Faction   string    `json:"faction" gorm:"size:16"`
	Rotation  int       `json:"rotation"`
	Outcome   string    `json:"outcome" gorm:"size:32;index"`
}

func (*MoveRecord) TableName() string {
	return "move_records"
}
