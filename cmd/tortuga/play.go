package main

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/config"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/database"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/dispatcher"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/logging"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/monitor"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/parser"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/worker"
	"github.com/spf13/viper"
)

// outputLine is printed for every dispatched script line.
type outputLine struct {
	Line    int    `json:"line"`
	Command string `json:"command"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

func playCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configDir := fs.String("config", ".", "directory holding "+config.FileName)
	seed := fs.Uint64("seed", 0, "seed for games started without one (0: config or random)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("play takes at most one script file")
	}

	in := stdin
	if fs.NArg() == 1 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		in = f
	}

	s, err := openSession(*configDir, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	backend, err := createStorageBackend(config.GetStorageConfig(), database.NewManager(s.Zerolog), s.Logger)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			s.Logger.Error("Failed to close storage backend", "error", err)
		}
	}()

	gameCfg := config.GetGameConfig()
	deps := worker.Dependencies{
		Match:       s.Match,
		Logger:      s.Logger,
		Seed:        seedSource(*seed, gameCfg.Seed),
		HoverBuffer: gameCfg.HoverBuffer,
		ScriptMode:  true,
	}
	if sink := s.Telemetry(); sink != nil {
		deps.Telemetry = sink
	}
	mgr, err := worker.NewManager(deps, backend)
	if err != nil {
		return err
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(s.Zerolog))
	if err != nil {
		return err
	}
	mgr.RegisterHandlers(d)
	defer d.Close()

	if mc := config.GetMonitorConfig(); mc.Enabled {
		monDeps := monitor.Dependencies{
			Match:      s.Match,
			Logger:     s.Logger,
			StatusPath: filepath.Join(viper.GetString("logsDir"), mc.FileName),
			Interval:   mc.Interval,
		}
		if p, ok := backend.(monitor.PendingCounter); ok {
			monDeps.Pending = p
		}
		mon := monitor.NewService(monDeps)
		if err := mon.Start(); err != nil {
			s.Logger.Warn("Status monitor not started", "error", err)
		} else {
			defer mon.Stop()
		}
	}

	enc := json.NewEncoder(stdout)
	n, err := runScript(in, d, enc)
	if err != nil {
		return err
	}

	// a game left open at the end of the script is closed so that it is exported
	if _, running := s.Match.Game(); running {
		res, err := d.Dispatch(dispatcher.Event{Command: worker.CmdEndGame})
		out := outputLine{Line: n + 1, Command: worker.CmdEndGame, Result: res}
		if err != nil {
			out.Result = nil
			out.Error = err.Error()
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	s.Logger.Info("Script finished", "lines", n)
	return nil
}

// runScript dispatches every event line of in and prints one JSON line per
// event. Command errors are printed, not returned. It returns the number of
// lines read.
func runScript(in io.Reader, d *dispatcher.Dispatcher, enc *json.Encoder) (int, error) {
	sc := bufio.NewScanner(in)
	n := 0
	for sc.Scan() {
		n++
		e, ok, err := parser.ParseLine(sc.Text(), time.Now())
		out := outputLine{Line: n, Command: e.Command}
		switch {
		case err != nil:
			out.Error = err.Error()
		case !ok:
			continue
		default:
			res, err := d.Dispatch(e)
			if err != nil {
				out.Error = err.Error()
			} else {
				out.Result = res
			}
		}
		if err := enc.Encode(out); err != nil {
			return n, err
		}
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("reading script: %w", err)
	}
	return n, nil
}

// seedSource picks the flag seed, then the configured one, then a random seed
// per game.
func seedSource(flagSeed, configSeed uint64) func() uint64 {
	switch {
	case flagSeed != 0:
		return func() uint64 { return flagSeed }
	case configSeed != 0:
		return func() uint64 { return configSeed }
	}
	return randomSeed
}

func randomSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}
