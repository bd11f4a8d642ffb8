package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/config"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/database"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/replay"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage"
	gormstorage "github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage/gorm"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage/memory"
	"gorm.io/gorm"
)

func replayCmd(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configDir := fs.String("config", ".", "directory holding "+config.FileName)
	dbPath := fs.String("db", "", "sqlite journal file")
	usePostgres := fs.Bool("postgres", false, "read the journal from the configured postgres database")
	gameID := fs.String("game", "", "game id to replay; lists the stored games when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fromDB := *dbPath != "" || *usePostgres
	switch {
	case fromDB && fs.NArg() > 0:
		return fmt.Errorf("replay takes either an export file or a database, not both")
	case !fromDB && fs.NArg() != 1:
		return fmt.Errorf("replay needs an export file")
	case *dbPath != "" && *usePostgres:
		return fmt.Errorf("-db and -postgres are exclusive")
	}

	s, err := openSession(*configDir, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	var j storage.Journal
	if fromDB {
		db, err := openJournalDB(s, *dbPath, *usePostgres)
		if err != nil {
			return err
		}
		defer closeDB(db)

		if *gameID == "" {
			return listGames(db, stdout)
		}
		j, err = gormstorage.LoadJournal(db, *gameID)
		if err != nil {
			return err
		}
	} else {
		j, err = memory.LoadExport(fs.Arg(0))
		if err != nil {
			return err
		}
	}

	report, err := replay.Run(j, s.Logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("replay of game %s diverged in %d of %d events", j.Game.ID, len(report.Mismatches), report.Events)
	}
	return nil
}

func openJournalDB(s *session, path string, usePostgres bool) (*gorm.DB, error) {
	dbm := database.NewManager(s.Zerolog)
	if usePostgres {
		return dbm.OpenPostgres(config.GetDBConfig())
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sqlite journal: %w", err)
	}
	return dbm.OpenSqlite(path)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func listGames(db *gorm.DB, stdout io.Writer) error {
	games, err := gormstorage.ListGames(db)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	for _, g := range games {
		if err := enc.Encode(g); err != nil {
			return err
		}
	}
	return nil
}
