package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the root logger. Components derive sub-loggers from it with
// a "component" field rather than calling this again.
//   - level: trace, debug, info, warn, error, fatal, panic
//   - format: "json" for production, anything else gets the console writer
func Setup(level, format string) zerolog.Logger {
	var writer io.Writer = os.Stdout
	if format != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(writer).With().Timestamp()
	if lvl <= zerolog.DebugLevel {
		// Caller info is only worth the overhead while debugging.
		ctx = ctx.Caller()
	}

	return ctx.Logger()
}
