package memory

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/config"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/storage"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/pkg/core"
)

// Verify Backend implements the storage interfaces
var (
	_ storage.Backend  = (*Backend)(nil)
	_ storage.Exporter = (*Backend)(nil)
	_ storage.Loader   = (*Backend)(nil)
)

var start = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func testGame(id string) *core.Game {
	return &core.Game{
		ID:          id,
		Seed:        99,
		Permutation: []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		StartTime:   start,
	}
}

func TestNew(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: "/tmp/test", CompressOutput: true})

	if b.cfg.OutputDir != "/tmp/test" {
		t.Errorf("expected OutputDir=/tmp/test, got %s", b.cfg.OutputDir)
	}
	if !b.cfg.CompressOutput {
		t.Error("expected CompressOutput=true")
	}
	if err := b.Init(); err != nil {
		t.Errorf("Init failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestRecordWithoutGame(t *testing.T) {
	b := New(config.MemoryConfig{})

	if err := b.RecordEvent(&core.EventRecord{GameID: "g"}); !errors.Is(err, storage.ErrNoGame) {
		t.Errorf("expected ErrNoGame, got %v", err)
	}
	if err := b.RecordMove(&core.MoveRecord{GameID: "g"}); !errors.Is(err, storage.ErrNoGame) {
		t.Errorf("expected ErrNoGame, got %v", err)
	}
	if err := b.EndGame(testGame("g")); !errors.Is(err, storage.ErrNoGame) {
		t.Errorf("expected ErrNoGame, got %v", err)
	}
}

func TestRecordForOtherGame(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartGame(testGame("a"))

	if err := b.RecordEvent(&core.EventRecord{GameID: "b"}); err == nil {
		t.Error("expected error for foreign game id")
	}
	if err := b.EndGame(testGame("b")); err == nil {
		t.Error("expected error ending a foreign game")
	}
}

func TestRecordAssignsIDs(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartGame(testGame("g"))

	e1 := &core.EventRecord{GameID: "g", Seq: 1, Command: ":SELECT:CELL:", Args: []string{"0"}}
	e2 := &core.EventRecord{GameID: "g", Seq: 2, Command: ":MOVE:", Args: []string{"1"}}
	m := &core.MoveRecord{GameID: "g", Seq: 2, Origin: 0, Target: 2, Outcome: "Moved"}

	for _, e := range []*core.EventRecord{e1, e2} {
		if err := b.RecordEvent(e); err != nil {
			t.Fatalf("RecordEvent failed: %v", err)
		}
	}
	if err := b.RecordMove(m); err != nil {
		t.Fatalf("RecordMove failed: %v", err)
	}

	if e1.ID != 1 || e2.ID != 2 || m.ID != 1 {
		t.Errorf("unexpected ids: %d %d %d", e1.ID, e2.ID, m.ID)
	}

	// Caller mutations after recording must not leak into the journal.
	e1.Args[0] = "7"

	j, ok := b.Journal()
	if !ok {
		t.Fatal("expected running journal")
	}
	if len(j.Events) != 2 || len(j.Moves) != 1 {
		t.Fatalf("unexpected journal sizes: %d events, %d moves", len(j.Events), len(j.Moves))
	}
	if j.Events[0].Args[0] != "0" {
		t.Errorf("journal aliased caller args: %v", j.Events[0].Args)
	}
}

func TestStartGameResets(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartGame(testGame("a"))
	_ = b.RecordEvent(&core.EventRecord{GameID: "a", Seq: 1})

	_ = b.StartGame(testGame("b"))

	j, _ := b.Journal()
	if j.Game.ID != "b" {
		t.Errorf("expected game b, got %s", j.Game.ID)
	}
	if len(j.Events) != 0 {
		t.Errorf("expected empty journal, got %d events", len(j.Events))
	}
}

func TestLoadJournal(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	_ = b.StartGame(testGame("g"))
	_ = b.RecordEvent(&core.EventRecord{GameID: "g", Seq: 1, Command: ":DESELECT:"})

	j, err := b.LoadJournal("g")
	if err != nil {
		t.Fatalf("LoadJournal running game: %v", err)
	}
	if len(j.Events) != 1 {
		t.Errorf("expected 1 event, got %d", len(j.Events))
	}

	end := testGame("g")
	end.EndTime = start.Add(time.Minute)
	if err := b.EndGame(end); err != nil {
		t.Fatalf("EndGame failed: %v", err)
	}
	if _, ok := b.Journal(); ok {
		t.Error("expected no running journal after EndGame")
	}

	j, err = b.LoadJournal("g")
	if err != nil {
		t.Fatalf("LoadJournal finished game: %v", err)
	}
	if !j.Game.EndTime.Equal(start.Add(time.Minute)) {
		t.Errorf("expected end time to be recorded, got %v", j.Game.EndTime)
	}

	if _, err := b.LoadJournal("other"); err == nil {
		t.Error("expected error for unknown game")
	}
}

func TestConcurrentRecording(t *testing.T) {
	b := New(config.MemoryConfig{})
	_ = b.StartGame(testGame("g"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = b.RecordEvent(&core.EventRecord{GameID: "g", Seq: uint(i*50 + j)})
			}
		}(i)
	}
	wg.Wait()

	j, _ := b.Journal()
	if len(j.Events) != 500 {
		t.Errorf("expected 500 events, got %d", len(j.Events))
	}
}
