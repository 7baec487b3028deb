package logging

import (
	"io"
	"os"
	"time"

	"github.com/jrsteele09/go-fintrack-client/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger: a console writer in DEV, JSON
// otherwise. Unknown levels fall back to info.
func Setup(cfg config.EnvConfig) zerolog.Logger {
	return SetupWriter(cfg, os.Stderr)
}

func SetupWriter(cfg config.EnvConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	w := out
	if cfg.IsDev() {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	logger := zerolog.New(w).Level(level).With().Timestamp().Str("app", cfg.GetAppName()).Logger()
	log.Logger = logger
	return logger
}
