// Package logging builds the structured loggers used by the driver, the
// webhook interceptor, the reference application and the CLI.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures a logger.
type Options struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Output defaults to os.Stderr.
	Output io.Writer
	// Prefix names the component, e.g. "driver".
	Prefix string
	// ReportTimestamp adds a timestamp to every entry.
	ReportTimestamp bool
}

// DefaultOptions logs info and above to stderr with timestamps.
func DefaultOptions() Options {
	return Options{
		Level:           "info",
		Output:          os.Stderr,
		ReportTimestamp: true,
	}
}

// ParseLevel converts a level name to log.Level. Unknown names mean info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// New creates a logger from opts.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      time.TimeOnly,
		ReportTimestamp: opts.ReportTimestamp,
	})
}

// Discard returns a logger that drops everything. Components use it when
// the caller did not supply one.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}
