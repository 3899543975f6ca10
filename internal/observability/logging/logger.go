// Package logging configures zerolog for the service and derives
// scoped loggers from a base logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	TimeFormat string // RFC3339, Unix, etc.
}

// DefaultConfig returns sensible default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		TimeFormat: time.RFC3339,
	}
}

// Init initializes the global zerolog logger and returns it. An
// unparseable level falls back to info.
func Init(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = cfg.TimeFormat

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer = os.Stdout
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.Kitchen,
		}
	}

	log.Logger = zerolog.New(output).
		With().
		Timestamp().
		Logger()
	return log.Logger
}

// WithMeeting returns a child logger carrying meeting context.
func WithMeeting(base zerolog.Logger, meetingID string) zerolog.Logger {
	return base.With().
		Str("meetingId", meetingID).
		Logger()
}

// WithJob returns a child logger carrying transcription job context.
func WithJob(base zerolog.Logger, meetingID, jobName string) zerolog.Logger {
	return base.With().
		Str("meetingId", meetingID).
		Str("jobName", jobName).
		Logger()
}

// WithComponent returns a child logger with a component tag.
func WithComponent(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().
		Str("component", component).
		Logger()
}
