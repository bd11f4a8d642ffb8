// Package logging builds the process loggers: slog for application logs and
// zerolog for the dispatcher and database layers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// SlogManager owns the application slog.Logger.
type SlogManager struct {
	logger *slog.Logger
	stderr io.Writer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{stderr: os.Stderr}
}

// ParseLevel converts a string log level to slog.Level. Unknown levels map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(level string) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// Setup builds the logger. Records go to file when it is non-nil, otherwise to
// stderr; stdout is left to the program's own output. Extra handlers (the graylog
// sink, a context handler) receive every record as well.
func (m *SlogManager) Setup(file io.Writer, level string, extra ...slog.Handler) {
	opts := handlerOptions(level)

	var handlers []slog.Handler
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, opts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(m.stderr, opts))
	}
	handlers = append(handlers, extra...)

	m.logger = slog.New(NewMultiHandler(handlers...))
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}
