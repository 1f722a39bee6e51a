package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Storage paths
	Storage StorageConfig `json:"storage" mapstructure:"storage"`

	// State persistence behavior
	Persist PersistConfig `json:"persist" mapstructure:"persist"`

	// Filesystem operation tuning
	FS FSConfig `json:"fs" mapstructure:"fs"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`

	// Session defaults
	Session SessionConfig `json:"session" mapstructure:"session"`
}

// StorageConfig for local file paths.
type StorageConfig struct {
	DataDir      string `json:"data_dir" mapstructure:"data_dir"`           // Base directory for all data
	StateDir     string `json:"state_dir" mapstructure:"state_dir"`         // Persisted state + backup ring
	SettingsFile string `json:"settings_file" mapstructure:"settings_file"` // User settings document
	RecentsDB    string `json:"recents_db" mapstructure:"recents_db"`       // Visited-locations database
}

// PersistConfig for the state-persistence cycle.
type PersistConfig struct {
	Interval   time.Duration `json:"interval" mapstructure:"interval"`       // Auto-save interval
	MaxBackups int           `json:"max_backups" mapstructure:"max_backups"` // Backup ring capacity
}

// FSConfig for filesystem operation behavior.
type FSConfig struct {
	CopyChunkSize int  `json:"copy_chunk_size" mapstructure:"copy_chunk_size"` // Bytes per copy chunk
	ListBatchSize int  `json:"list_batch_size" mapstructure:"list_batch_size"` // Entries per streamed batch
	Watch         bool `json:"watch" mapstructure:"watch"`                     // Watch the active directory
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // Log file path (empty = stdout)
}

// SessionConfig for the initial session when no state is recoverable.
type SessionConfig struct {
	StartPath string `json:"start_path" mapstructure:"start_path"` // First tab's directory
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".tabfm"
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	} else {
		dataDir = filepath.Join(home, ".tabfm")
	}

	return &Config{
		Storage: StorageConfig{
			DataDir:      dataDir,
			StateDir:     filepath.Join(dataDir, "state"),
			SettingsFile: filepath.Join(dataDir, "settings.json"),
			RecentsDB:    filepath.Join(dataDir, "recents.db"),
		},
		Persist: PersistConfig{
			Interval:   30 * time.Second,
			MaxBackups: 5,
		},
		FS: FSConfig{
			CopyChunkSize: 1024 * 1024, // 1MB chunks
			ListBatchSize: 256,
			Watch:         true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Session: SessionConfig{
			StartPath: home,
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Storage.StateDir == "" {
		return errors.New("storage.state_dir is required")
	}

	if c.Persist.Interval <= 0 {
		return errors.New("persist.interval must be positive")
	}

	if c.Persist.MaxBackups < 1 {
		return errors.New("persist.max_backups must be at least 1")
	}

	if c.FS.CopyChunkSize <= 0 {
		return errors.New("fs.copy_chunk_size must be positive")
	}

	if c.FS.ListBatchSize <= 0 {
		return errors.New("fs.list_batch_size must be positive")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDir,
		c.Storage.StateDir,
		filepath.Dir(c.Storage.SettingsFile),
		filepath.Dir(c.Storage.RecentsDB),
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
