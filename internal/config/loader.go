package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from file and environment.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a config loader. An empty configPath searches the
// default locations.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envPrefix:  "TABFM",
	}
}

// Load reads configuration, layering file values and environment
// overrides on top of the defaults.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", l.configPath, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		for _, dir := range defaultConfigDirs() {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			// No config file anywhere is fine; defaults apply.
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("storage.state_dir", cfg.Storage.StateDir)
	v.SetDefault("storage.settings_file", cfg.Storage.SettingsFile)
	v.SetDefault("storage.recents_db", cfg.Storage.RecentsDB)
	v.SetDefault("persist.interval", cfg.Persist.Interval)
	v.SetDefault("persist.max_backups", cfg.Persist.MaxBackups)
	v.SetDefault("fs.copy_chunk_size", cfg.FS.CopyChunkSize)
	v.SetDefault("fs.list_batch_size", cfg.FS.ListBatchSize)
	v.SetDefault("fs.watch", cfg.FS.Watch)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("session.start_path", cfg.Session.StartPath)
}

func defaultConfigDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".config", "tabfm"),
			filepath.Join(home, ".tabfm"),
		)
	}
	return dirs
}
