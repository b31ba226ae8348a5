package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger builds the process logger. format "json" writes structured lines,
// anything else uses the human readable console writer.
func InitLogger(level, format string) zerolog.Logger {
	return newLogger(os.Stderr, level, format)
}

func newLogger(out io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if format == "json" {
		logger = log.Output(out)
	} else {
		logger = log.Output(zerolog.ConsoleWriter{Out: out})
	}
	return logger.Level(lvl)
}
