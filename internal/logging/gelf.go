package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfHandler returns a JSON slog handler that ships each record to a
// Graylog GELF UDP input at addr. The returned closer releases the socket.
func NewGelfHandler(addr, level string) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to graylog at %s: %w", addr, err)
	}
	return slog.NewJSONHandler(w, handlerOptions(level)), w, nil
}
