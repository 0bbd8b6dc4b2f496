package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog.Logger and owns the optional log file.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// Config holds logger configuration
type Config struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	File   string `yaml:"file"`   // log file path
	Pretty bool   `yaml:"pretty"` // human-readable console output
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	return Config{Level: "info", Pretty: true}
}

// New creates a logger writing to stderr and, when configured, a file.
// It also replaces the global zerolog logger.
func New(cfg Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var console io.Writer = os.Stderr
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	writer := console

	var file *os.File
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = zerolog.MultiLevelWriter(console, file)
	}

	zl := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	log.Logger = zl

	return &Logger{Logger: zl, file: file}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
