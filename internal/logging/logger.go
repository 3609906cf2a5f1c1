// Package logging builds the hclog loggers used by the envgen command.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// EnvLogLevel overrides the default log level when no flag is given.
	EnvLogLevel = "ENVGEN_LOG_LEVEL"

	// EnvJSONLog switches output to JSON when set to "1".
	EnvJSONLog = "ENVGEN_JSON_LOG"

	defaultLevel = "warn"
)

// NewLogger creates an hclog logger writing to output, stderr when nil.
// A level of the form "json:<level>" also enables JSON output.
func NewLogger(name, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv(EnvJSONLog) == "1"
	if rest, ok := strings.CutPrefix(level, "json"); ok {
		jsonFormat = true
		level = strings.TrimPrefix(rest, ":")
	}
	if level == "" {
		level = defaultLevel
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// Level resolves the log level: the flag value wins, then EnvLogLevel, then "warn".
func Level(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvLogLevel); env != "" {
		return env
	}
	return defaultLevel
}
