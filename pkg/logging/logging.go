// Package logging configures zerolog loggers for the CLI and API server
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "PNGME_LOG_LEVEL"
	EnvLogFormat  = "PNGME_LOG_FORMAT"
	EnvLogNoColor = "PNGME_LOG_NOCOLOR"
)

// Output formats
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options controls logger construction
type Options struct {
	Level   string
	Format  string
	NoColor bool
	Out     io.Writer
}

// New builds a logger from opts after applying environment overrides
func New(app string, opts Options) zerolog.Logger {
	applyEnvOverrides(&opts)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		}
	}

	level, _ := ParseLevel(opts.Level)
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("app", app).
		Logger()
}

// Nop returns a disabled logger
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// ParseLevel maps a level name to a zerolog level. Unknown names fall
// back to info and report false.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func applyEnvOverrides(opts *Options) {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		if _, ok := ParseLevel(lvl); ok {
			opts.Level = lvl
		}
	}
	if format := strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogFormat))); format == FormatJSON || format == FormatConsole {
		opts.Format = format
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
