package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"pdf-rag/internal/config"
)

// Setup configures the global logger: a console writer on stderr and, when
// cfg.File is set, a rotated JSON file next to it.
func Setup(cfg *config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	log.Logger = zerolog.New(Writer(cfg, os.Stderr)).With().Timestamp().Caller().Logger()
}

func Writer(cfg *config.LogConfig, console io.Writer) io.Writer {
	consoleWriter := zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
	if cfg.File == "" {
		return consoleWriter
	}
	return zerolog.MultiLevelWriter(consoleWriter, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	})
}

// ParseLevel falls back to info for anything it does not know.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
