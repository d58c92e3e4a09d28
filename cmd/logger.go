package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	return newLogger(os.Stderr, logFile, logLevel)
}

func newLogger(stderr io.Writer, logFile, logLevel string) zerolog.Logger {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	// Set up output
	var output io.Writer = stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open log file: %v\n", err)
		} else {
			output = f
		}
	}

	// Use pretty console output unless logging to a file
	if output == stderr {
		output = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// apiLogger adapts a zerolog.Logger to spotify.Logger
type apiLogger struct {
	logger zerolog.Logger
}

func (l apiLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l apiLogger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

// progressLogger returns a callback reporting pagination progress
func progressLogger(logger zerolog.Logger) func(loaded, total int) {
	return func(loaded, total int) {
		logger.Info().
			Int("loaded", loaded).
			Int("total", total).
			Msgf("Loaded %d/%d items", loaded, total)
	}
}
