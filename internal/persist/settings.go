package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/tabfm/tabfm/internal/events"
	"github.com/tabfm/tabfm/internal/models"
)

// Settings holds user preferences. They live in their own document with
// the same atomic-write discipline as state, but no backup rotation.
type Settings struct {
	DarkTheme        bool   `json:"dark_theme"`
	ShowHidden       bool   `json:"show_hidden"`
	ConfirmDelete    bool   `json:"confirm_delete"`
	DefaultDirectory string `json:"default_directory,omitempty"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() *Settings {
	return &Settings{
		DarkTheme:     true,
		ConfirmDelete: true,
	}
}

// SettingsStore reads and writes the settings document.
type SettingsStore struct {
	path   string
	logger *events.Logger
	mu     sync.Mutex
}

// NewSettingsStore creates a settings store backed by path.
func NewSettingsStore(path string, logger *events.Logger) *SettingsStore {
	return &SettingsStore{
		path:   path,
		logger: logger.WithField("component", "settings"),
	}
}

// Load reads settings. A missing file yields the defaults; a malformed
// file is reported as a schema error.
func (s *SettingsStore) Load() (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, models.NewOpError("settings.load", s.path, err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, &models.OpError{
			Op: "settings.load", Path: s.path, Kind: models.KindSchemaInvalid,
			Err: fmt.Errorf("%w: %v", models.ErrSchemaInvalid, err),
		}
	}

	return settings, nil
}

// Save writes settings atomically. A single overwrite, no rotation.
func (s *SettingsStore) Save(settings *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := writeFileSync(tmpPath, data, 0600); err != nil {
		return models.NewOpError("settings.save", s.path, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return models.NewOpError("settings.save", s.path, err)
	}

	s.logger.Debug("Saved settings")
	return nil
}
