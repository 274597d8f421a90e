// Package logger provides structured logging for the setup pipeline and
// the CLI. The numeric core never logs.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// L is the process-wide logger.
var L zerolog.Logger

func init() {
	L = console().Level(zerolog.InfoLevel)
}

// Setup reconfigures the process-wide logger. level is one of debug,
// info, warn, error (case-insensitive, defaults to info); json selects
// machine-readable output instead of the console writer.
func Setup(level string, json bool) {
	lvl := parseLevel(level)
	if json {
		L = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
		return
	}
	L = console().Level(lvl)
}

func console() zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
