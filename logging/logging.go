// Package logging builds the process logger from LOG_LEVEL and GO_ENV.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values keep INFO.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO", "":
		return slog.LevelInfo, true
	case "WARNING", "WARN":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// New writes text to w, or JSON when env is "production".
func New(w io.Writer, level, env string) *slog.Logger {
	lvl, ok := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl == slog.LevelDebug}

	var log *slog.Logger
	if env == "production" {
		log = slog.New(slog.NewJSONHandler(w, opts))
	} else {
		log = slog.New(slog.NewTextHandler(w, opts))
	}
	if !ok {
		log.Warn("unrecognized LOG_LEVEL, keeping INFO", "value", level)
	}
	return log
}

// Setup installs the stderr logger as the slog default and returns it.
func Setup(level, env string) *slog.Logger {
	log := New(os.Stderr, level, env)
	slog.SetDefault(log)
	return log
}
