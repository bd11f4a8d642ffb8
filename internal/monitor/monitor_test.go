package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/game"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/match"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPending int

func (p fixedPending) Pending() int { return int(p) }

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, mc *match.Context) *Service {
	t.Helper()
	return NewService(Dependencies{
		Match:      mc,
		Pending:    fixedPending(3),
		StatusPath: filepath.Join(t.TempDir(), "status.json"),
		Interval:   10 * time.Millisecond,
		Now:        func() time.Time { return now },
	})
}

func TestGetStatus_NoGame(t *testing.T) {
	s := newService(t, match.NewContext())

	st, ok := s.GetStatus()
	assert.False(t, ok)
	assert.Equal(t, now, st.Time)
	assert.Equal(t, 3, st.PendingWrites)
	assert.Empty(t, st.GameID)
}

func TestGetStatus_RunningGame(t *testing.T) {
	mc := match.NewContext()
	g := mc.Start(8, now)
	_, _, err := match.Update(mc, func(s *game.State) bool { return s.Select(4) })
	require.NoError(t, err)

	st, ok := newService(t, mc).GetStatus()
	require.True(t, ok)
	assert.Equal(t, g.ID, st.GameID)
	assert.Equal(t, uint(1), st.Seq)
	require.NotNil(t, st.Selected)
	assert.Equal(t, 4, *st.Selected)
}

func TestWriteStatus(t *testing.T) {
	mc := match.NewContext()
	mc.Start(8, now)
	s := newService(t, mc)

	st, _ := s.GetStatus()
	require.NoError(t, s.WriteStatus(st))

	data, err := os.ReadFile(s.deps.StatusPath)
	require.NoError(t, err)
	var got Status
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, st.GameID, got.GameID)
	assert.Equal(t, 3, got.PendingWrites)
}

func TestStartStop(t *testing.T) {
	mc := match.NewContext()
	mc.Start(8, now)
	s := newService(t, mc)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second start is a no-op")
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool {
		_, err := os.Stat(s.deps.StatusPath)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStart_SkipsBetweenGames(t *testing.T) {
	s := newService(t, match.NewContext())
	require.NoError(t, s.Start())
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	_, err := os.Stat(s.deps.StatusPath)
	assert.True(t, os.IsNotExist(err))
}

func TestStart_NoPath(t *testing.T) {
	s := NewService(Dependencies{Match: match.NewContext()})
	assert.Error(t, s.Start())
	assert.Equal(t, DefaultInterval, s.deps.Interval)
}
