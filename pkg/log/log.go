// Package log builds [slog.Handler] instances for the CLI and the TUI.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Output formats accepted by [CreateHandler].
const (
	FormatText   = "text"
	FormatLogfmt = "logfmt"
	FormatJSON   = "json"
)

// CreateHandler creates a [slog.Handler] writing to w, configured by log level
// and format strings.
func CreateHandler(w io.Writer, logLevel, logFormat string) (slog.Handler, error) {
	level, err := ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}

	opts := charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
	}

	switch strings.ToLower(logFormat) {
	case FormatJSON:
		opts.Formatter = charmlog.JSONFormatter
	case FormatLogfmt:
		opts.Formatter = charmlog.LogfmtFormatter
	case FormatText, "":
		opts.Formatter = charmlog.TextFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", logFormat)
	}

	return charmlog.NewWithOptions(w, opts), nil
}

// ParseLevel converts a level string into a [charmlog.Level]. It accepts a few
// aliases beyond what charmbracelet/log parses itself.
func ParseLevel(logLevel string) (charmlog.Level, error) {
	switch strings.ToLower(logLevel) {
	case "":
		return charmlog.InfoLevel, nil
	case "trace":
		return charmlog.DebugLevel, nil
	case "panic":
		return charmlog.FatalLevel, nil
	}

	level, err := charmlog.ParseLevel(logLevel)
	if err != nil {
		return charmlog.InfoLevel, fmt.Errorf("unknown log level %q: %w", logLevel, err)
	}

	return level, nil
}
