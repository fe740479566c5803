package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig holds the embedded database settings. Journal and sync
// modes are applied through the connection string so every pooled
// connection inherits them.
type DatabaseConfig struct {
	Directory     string `yaml:"directory"`
	File          string `yaml:"file"`
	JournalMode   string `yaml:"journal_mode"`    // WAL by default
	Synchronous   string `yaml:"synchronous"`     // NORMAL by default
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"` // how long writers wait on a lock
}

// Path returns the full database file path.
func (d DatabaseConfig) Path() string {
	return filepath.Join(d.Directory, d.File)
}

// DSN builds the modernc.org/sqlite connection string with pragmas for
// journaling, durability, and lock waiting.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(%s)&_pragma=synchronous(%s)&_pragma=busy_timeout(%d)",
		d.Path(), d.JournalMode, d.Synchronous, d.BusyTimeoutMS)
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// NewLogger builds a leveled slog logger on stderr per the config.
func (l LoggingConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(l.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
