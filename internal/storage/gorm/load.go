package gormstorage

import (
	"errors"
	"fmt"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/model"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/model/convert"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/pkg/core"
	"gorm.io/gorm"
)

// ErrGameNotFound is returned when no game row has the requested id.
var ErrGameNotFound = errors.New("game not found")

// LoadJournal reads one game from db.
func LoadJournal(db *gorm.DB, gameID string) (storage.Journal, error) {
	var row model.Game
	err := db.First(&row, "id = ?", gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.Journal{}, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return storage.Journal{}, fmt.Errorf("load game %s: %w", gameID, err)
	}

	g, err := convert.GameToCore(row)
	if err != nil {
		return storage.Journal{}, err
	}
	j := storage.Journal{Game: g}

	var events []model.EventRecord
	if err := db.Where("game_id = ?", gameID).Order("seq, id").Find(&events).Error; err != nil {
		return storage.Journal{}, fmt.Errorf("load events of %s: %w", gameID, err)
	}
	j.Events = make([]core.EventRecord, 0, len(events))
	for _, e := range events {
		ce, err := convert.EventToCore(e)
		if err != nil {
			return storage.Journal{}, err
		}
		j.Events = append(j.Events, ce)
	}

	var moves []model.MoveRecord
	if err := db.Where("game_id = ?", gameID).Order("seq, id").Find(&moves).Error; err != nil {
		return storage.Journal{}, fmt.Errorf("load moves of %s: %w", gameID, err)
	}
	j.Moves = make([]core.MoveRecord, 0, len(moves))
	for _, m := range moves {
		j.Moves = append(j.Moves, convert.MoveToCore(m))
	}

	return j, nil
}

// ListGames returns every game in db, newest first.
func ListGames(db *gorm.DB) ([]core.Game, error) {
	var rows []model.Game
	if err := db.Order("start_time desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	out := make([]core.Game, 0, len(rows))
	for _, r := range rows {
		g, err := convert.GameToCore(r)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}
