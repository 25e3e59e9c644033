// Package logging builds the application logger from configuration.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"
)

// Options mirror the logging section of the configuration.
type Options struct {
	Level      string
	Format     string
	Timestamps bool
}

// New constructs a logger writing to w. Unknown level or format values
// fall back to info and text rather than failing startup.
func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           parseLevel(opts.Level),
		Formatter:       parseFormat(opts.Format),
		ReportTimestamp: opts.Timestamps,
		Prefix:          "todomd",
	})
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func parseFormat(s string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
