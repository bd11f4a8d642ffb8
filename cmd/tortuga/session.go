package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/config"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/influx"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/logging"
	"github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/match"
	intOtel "github.com/bsobocki/BitwaOTortuge-UWR-ThirdYear/internal/otel"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// session holds everything a subcommand shares: config, loggers, metrics and
// the optional telemetry sink.
type session struct {
	start time.Time

	logFile  *os.File
	logPath  string
	slog     *logging.SlogManager
	Logger   *slog.Logger
	Zerolog  zerolog.Logger
	closers  []io.Closer
	otel     *intOtel.Provider
	influx   *influx.Manager
	Match    *match.Context
	ConfigOK bool
}

// openSession loads the config from configDir and builds the loggers. A
// missing config file is not an error: defaults apply.
func openSession(configDir string, stderr io.Writer) (*session, error) {
	s := &session{
		start: time.Now(),
		slog:  logging.NewSlogManager(),
		Match: match.NewContext(),
	}

	configErr := config.Load(configDir)
	if configErr != nil {
		config.SetDefaults()
	}
	s.ConfigOK = configErr == nil
	level := viper.GetString("logLevel")

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating logs directory: %w", err)
	}
	s.logPath = logging.LogFilePath(logsDir, AppName, s.start)
	if _, err := os.Stat(s.logPath); err == nil {
		os.Rename(s.logPath, s.logPath+".old")
	}
	f, err := os.OpenFile(s.logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open log file %s: %v\n", s.logPath, err)
	} else {
		s.logFile = f
	}

	var logOut io.Writer = stderr
	if s.logFile != nil {
		logOut = s.logFile
	}

	var extra []slog.Handler
	gl := config.GetGraylogConfig()
	if gl.Enabled {
		h, closer, err := logging.NewGelfHandler(gl.Address, level)
		if err != nil {
			fmt.Fprintf(stderr, "Graylog disabled: %v\n", err)
		} else {
			extra = append(extra, h)
			s.closers = append(s.closers, closer)
		}
	}

	if s.logFile != nil {
		s.slog.Setup(s.logFile, level, extra...)
	} else {
		s.slog.Setup(nil, level, extra...)
	}
	s.Logger = slog.New(logging.NewContextHandler(s.slog.Logger().Handler(), s.Match.LogAttrs))
	s.Zerolog = logging.NewZerolog(logOut, level)

	if configErr != nil {
		s.Logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		s.Logger.Info("Loaded config", "dir", configDir)
	}
	s.Logger.Info("Begin logging", "path", s.logPath, "version", Version)

	oc := config.GetOTelConfig()
	s.otel, err = intOtel.New(intOtel.Config{
		Enabled:        oc.Enabled,
		ServiceName:    oc.ServiceName,
		ExportInterval: oc.ExportInterval,
		MetricWriter:   logOut,
	})
	if err != nil {
		s.Logger.Error("Failed to initialize OTel provider", "error", err)
		s.otel = nil
	} else if oc.Enabled {
		s.Logger.Info("OTel provider initialized", "interval", oc.ExportInterval)
	}

	return s, nil
}

// Telemetry connects the influx sink when it is enabled. It returns nil when
// no sink is available.
func (s *session) Telemetry() *influx.Manager {
	if s.influx != nil {
		return s.influx
	}
	ic := config.GetInfluxConfig()
	if !ic.Enabled {
		return nil
	}
	m := influx.NewManager(s.Zerolog)
	if err := m.Connect(ic); err != nil {
		s.Logger.Error("Failed to connect to InfluxDB", "error", err)
		return nil
	}
	s.influx = m
	return m
}

// Close flushes metrics and telemetry and releases the log sinks.
func (s *session) Close() {
	if s.influx != nil {
		if err := s.influx.Close(); err != nil {
			s.Logger.Error("Failed to close InfluxDB client", "error", err)
		}
	}
	if s.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.otel.Shutdown(ctx); err != nil {
			s.Logger.Error("Failed to shut down OTel provider", "error", err)
		}
		cancel()
	}
	s.Logger.Info("Session closed", "duration", time.Since(s.start))
	for _, c := range s.closers {
		c.Close()
	}
	if s.logFile != nil {
		s.logFile.Close()
	}
}
