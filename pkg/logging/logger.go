package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Environment variables read when no explicit configuration is given.
const (
	EnvLogLevel = "MAGICPATCH_LOG_LEVEL"
	EnvJSONLog  = "MAGICPATCH_JSON_LOG"
)

// DefaultLevel keeps the CLI quiet unless asked otherwise.
const DefaultLevel = "warn"

// linePrefix marks human-readable log lines.
const linePrefix = "🪄 "

// NewLogger creates a new hclog logger with standard settings
func NewLogger(name string, level string, jsonFormat bool, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	// Add prefix for non-JSON output
	if !jsonFormat {
		output = NewPrefixWriter(linePrefix, output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// NewLoggerFromEnv builds a logger from MAGICPATCH_LOG_LEVEL and
// MAGICPATCH_JSON_LOG.
func NewLoggerFromEnv(name string) hclog.Logger {
	return NewLogger(name, GetLogLevel(), os.Getenv(EnvJSONLog) == "1", nil)
}

// GetLogLevel returns the configured log level from environment
func GetLogLevel() string {
	level := os.Getenv(EnvLogLevel)
	if level == "" {
		level = DefaultLevel
	}
	return level
}
