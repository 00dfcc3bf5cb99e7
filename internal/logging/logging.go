// Package logging configures the process-wide zerolog logger.
//
// Grounded on xiaoyuanzhu-com-my-life-db/backend/log/logger.go's
// New(output).Level(level).With().Timestamp().Logger() construction; the
// level source here is VIBE_REACHOUT_LOG (the Go-idiom rename of the
// original Rust binary's RUST_LOG) rather than a config struct.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvVar is the environment variable selecting the log level.
const EnvVar = "VIBE_REACHOUT_LOG"

// Init builds the global zerolog logger, writing to stderr so stdout stays
// reserved for the hook's single JSON output line. defaultLevel applies
// when EnvVar is unset or unrecognized.
func Init(defaultLevel zerolog.Level) zerolog.Logger {
	level := defaultLevel
	if raw := os.Getenv(EnvVar); raw != "" {
		if parsed, ok := parseLevel(raw); ok {
			level = parsed
		}
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return logger
}

func parseLevel(s string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "off", "silent":
		return zerolog.Disabled, true
	default:
		return zerolog.NoLevel, false
	}
}
