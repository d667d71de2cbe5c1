package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with additional context
type Logger struct {
	zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Output string // stdout or file path
}

// New creates a new logger with the given configuration
func New(cfg Config) *Logger {
	var output io.Writer = os.Stdout

	if cfg.Output != "" && cfg.Output != "stdout" {
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			output = file
		}
	}

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()

	return &Logger{Logger: logger}
}

// Default creates a default console logger
func Default() *Logger {
	return New(Config{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	})
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With().Str("component", component).Logger(),
	}
}

// WithSource adds source information to the logger
func (l *Logger) WithSource(sourceType, sourceName string) *Logger {
	return &Logger{
		Logger: l.With().
			Str("source_type", sourceType).
			Str("source_name", sourceName).
			Logger(),
	}
}

// WithProvider adds an external provider field (pexels, unsplash, ...)
func (l *Logger) WithProvider(provider string) *Logger {
	return &Logger{
		Logger: l.With().Str("provider", provider).Logger(),
	}
}

// WithIdeaID adds an idea ID to the logger
func (l *Logger) WithIdeaID(id uint) *Logger {
	return &Logger{
		Logger: l.With().Uint("idea_id", id).Logger(),
	}
}

// WithDraftID adds a draft ID to the logger
func (l *Logger) WithDraftID(id uint) *Logger {
	return &Logger{
		Logger: l.With().Uint("draft_id", id).Logger(),
	}
}
