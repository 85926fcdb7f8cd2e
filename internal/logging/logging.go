// Package logging builds the structured loggers used across cody.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// New creates a logger writing to w (stderr when nil) at the given level.
func New(w io.Writer, level log.Level) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return l
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// ParseLevel maps a config string to a level. Unknown values fall back to info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// With returns a child logger carrying the given key-value pairs.
func With(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// RequestID generates an id for correlating the log lines of one API call.
func RequestID() string {
	return uuid.New().String()
}
