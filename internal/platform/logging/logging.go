// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to stdout. format "console" gives human-readable output, anything
// else JSON lines. An unknown level falls back to info.
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

func NewWithWriter(out io.Writer, level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
