package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls logger construction.
type Config struct {
	Level  string
	Format string // "console" or "json"
	File   FileConfig
}

// FileConfig enables rotated file output next to stderr.
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// Setup builds the process logger. The returned closer flushes the log
// file when one is open.
func Setup(cfg Config) (zerolog.Logger, func() error, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var console io.Writer = os.Stderr
	if cfg.Format != "json" {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	closer := func() error { return nil }
	w := console
	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return zerolog.Logger{}, nil, fmt.Errorf("log file path is required when file logging is enabled")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File.Path), 0o750); err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		}
		w = io.MultiWriter(console, fileWriter)
		closer = fileWriter.Close
	}

	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return log, closer, nil
}
