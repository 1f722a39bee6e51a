// Package testutil provides helpers shared by integration tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tabfm/tabfm/internal/config"
	"github.com/tabfm/tabfm/internal/events"
	"github.com/tabfm/tabfm/internal/models"
)

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

// TestConfig returns a config rooted in a per-test temp directory, with a
// short persistence interval and the watcher disabled for determinism.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()

	dataDir := filepath.Join(t.TempDir(), "tabfm")
	startPath := t.TempDir()

	return &config.Config{
		Storage: config.StorageConfig{
			DataDir:      dataDir,
			StateDir:     filepath.Join(dataDir, "state"),
			SettingsFile: filepath.Join(dataDir, "settings.json"),
			RecentsDB:    filepath.Join(dataDir, "recents.db"),
		},
		Persist: config.PersistConfig{
			Interval:   50 * time.Millisecond,
			MaxBackups: 5,
		},
		FS: config.FSConfig{
			CopyChunkSize: 4096,
			ListBatchSize: 64,
			Watch:         false,
		},
		Log: config.LogConfig{
			Level:  "debug",
			Format: "json",
		},
		Session: config.SessionConfig{
			StartPath: startPath,
		},
	}
}

// MakeTree creates files under root. Keys are slash-separated relative
// paths; values are file contents. Parent directories are created as
// needed.
func MakeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// CollectEvents drains everything currently queued on the subscription.
func CollectEvents(sub *events.Subscription) []models.StateChangeEvent {
	var out []models.StateChangeEvent
	for {
		select {
		case event, ok := <-sub.C():
			if !ok {
				return out
			}
			out = append(out, event)
		default:
			return out
		}
	}
}

// EntryNames projects a listing to its entry names, in listing order.
func EntryNames(listing *models.DirectoryListing) []string {
	names := make([]string, len(listing.Entries))
	for i, e := range listing.Entries {
		names[i] = e.Name
	}
	return names
}
