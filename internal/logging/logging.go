// Package logging builds the zerolog logger used by the otsolve CLI.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "info"

// New returns a console logger writing to w at the given level
// ("trace", "debug", "info", "warn", "error"; empty means DefaultLevel).
func New(w io.Writer, level string) (zerolog.Logger, error) {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
