// Package logger builds the zerolog logger used across the exporter.
//
// Logs go to stderr so stdout stays free for the progress lines an operator
// watches (and may pipe elsewhere).
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config selects output format and level.
type Config struct {
	// Format is "console" (human readable) or "json".
	Format string

	// Level is trace, debug, info, warn or error. Unknown values mean info.
	Level string

	// Out defaults to os.Stderr.
	Out io.Writer
}

// New creates a structured logger.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
