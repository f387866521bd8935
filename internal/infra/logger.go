package infra

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so packages can accept the service logger
// without importing zerolog themselves.
type Logger = zerolog.Logger

// NewLogger writes to stdout. Development gets a console writer at debug
// level; every other environment logs JSON at info. A non-empty level
// ("debug", "warn", ...) overrides the default.
func NewLogger(appEnv, level string) Logger {
	return newLogger(os.Stdout, appEnv, level)
}

func newLogger(out io.Writer, appEnv, level string) Logger {
	dev := appEnv == "development"

	lvl := zerolog.InfoLevel
	if dev {
		lvl = zerolog.DebugLevel
	}
	if level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil {
			lvl = parsed
		}
	}

	if dev {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "donationhub").
		Str("env", appEnv).
		Logger()
}
