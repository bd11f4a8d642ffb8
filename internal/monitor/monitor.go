// Package monitor periodically writes the status of the running game to a
// file, the way an operator would tail it during a long scripted session.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/game"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/match"
)

// DefaultInterval is used when Dependencies.Interval is not positive.
const DefaultInterval = time.Second

// PendingCounter is implemented by journal backends that buffer writes.
type PendingCounter interface {
	Pending() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Match      *match.Context
	Logger     *slog.Logger
	Pending    PendingCounter // optional
	StatusPath string
	Interval   time.Duration
	Now        func() time.Time
}

// Status is what the status file holds.
type Status struct {
	Time          time.Time   `json:"time"`
	GameID        string      `json:"gameId,omitempty"`
	Seq           uint        `json:"seq"`
	Selected      *int        `json:"selected,omitempty"`
	Scores        game.Scores `json:"scores"`
	PendingWrites int         `json:"pendingWrites"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current status. ok is false between games.
func (s *Service) GetStatus() (st Status, ok bool) {
	st.Time = s.deps.Now()
	if s.deps.Pending != nil {
		st.PendingWrites = s.deps.Pending.Pending()
	}

	g, running := s.deps.Match.Game()
	if !running {
		return st, false
	}
	st.GameID = g.ID
	st.Seq = s.deps.Match.Seq()
	if snap, err := s.deps.Match.Snapshot(); err == nil {
		st.Selected = snap.Selected
		st.Scores = snap.Scores
	}
	return st, true
}

// WriteStatus replaces the status file with the current status.
func (s *Service) WriteStatus(st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.deps.StatusPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	if s.deps.StatusPath == "" {
		return fmt.Errorf("status file path not set")
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(done)
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor", "path", s.deps.StatusPath, "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				st, ok := s.GetStatus()
				if !ok {
					continue
				}
				if err := s.WriteStatus(st); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
