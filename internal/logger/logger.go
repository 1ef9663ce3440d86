package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger. Development gets a console writer,
// everything else JSON. An unknown level falls back to info.
func Init(env, level string) {
	Setup(os.Stderr, env, level)
}

func Setup(out io.Writer, env, level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "development" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(ParseLevel(level))
}

func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
