// Package persist writes application state and user settings to disk
// atomically, keeps a rotating ring of state backups, and recovers from
// corrupt files on load.
package persist

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tabfm/tabfm/internal/events"
	"github.com/tabfm/tabfm/internal/models"
)

// CurrentSchemaVersion for persisted snapshots.
const CurrentSchemaVersion = 1

// PersistedSnapshot is the on-disk representation of application state.
type PersistedSnapshot struct {
	SchemaVersion int             `json:"schema_version"`
	State         models.AppState `json:"state"`
	WrittenAt     time.Time       `json:"written_at"`
}

// Manager persists state snapshots with a fixed-size backup ring. The
// primary file is state.json; backups are state1.json through stateN.json,
// generation 1 newest, oldest evicted when the ring is full. All file
// operations are serialized: a save requested while one is running waits
// for it rather than interleaving.
type Manager struct {
	stateDir   string
	maxBackups int
	logger     *events.Logger

	mu sync.Mutex
}

// NewManager creates a persistence manager rooted at stateDir.
func NewManager(stateDir string, maxBackups int, logger *events.Logger) (*Manager, error) {
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	return &Manager{
		stateDir:   stateDir,
		maxBackups: maxBackups,
		logger:     logger.WithField("component", "persist"),
	}, nil
}

// Save writes state as the new primary snapshot. The previous snapshot is
// preserved in the ring, and a failed write never corrupts the existing
// primary because the new content lands under a temp name first.
func (m *Manager) Save(state models.AppState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := PersistedSnapshot{
		SchemaVersion: CurrentSchemaVersion,
		State:         state,
		WrittenAt:     time.Now().UTC(),
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	primary := m.primaryPath()
	tmpPath := primary + ".tmp"

	if err := writeFileSync(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temp snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, primary); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace primary snapshot: %w", err)
	}

	// Rotate the fresh snapshot into the ring: the ring always holds the
	// last maxBackups saves, so even a later corruption of the primary
	// loses nothing.
	if err := m.rotateLocked(); err != nil {
		return fmt.Errorf("rotate backups: %w", err)
	}

	m.logger.WithFields(map[string]interface{}{
		"path":  primary,
		"tabs":  len(state.Tabs),
		"bytes": len(data),
	}).Debug("Saved state snapshot")

	return nil
}

// Load reads the primary snapshot, falling back through the backup ring,
// newest first, when the primary is missing, unreadable, or fails schema
// validation. Backups are never modified by a failed read. When nothing
// parses it returns ErrNoRecoverableState.
func (m *Manager) Load() (*PersistedSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := []string{m.primaryPath()}
	for n := 1; n <= m.maxBackups; n++ {
		paths = append(paths, m.backupPath(n))
	}

	for i, path := range paths {
		snapshot, err := readSnapshot(path)
		if err != nil {
			if !os.IsNotExist(err) {
				m.logger.WithError(err).WithField("path", path).Warn("Snapshot unreadable, trying next generation")
			}
			continue
		}

		if i > 0 {
			m.logger.WithFields(map[string]interface{}{
				"path":       path,
				"generation": i,
			}).Warn("Recovered state from backup")
		}
		return snapshot, nil
	}

	return nil, &models.OpError{
		Op:   "persist.load",
		Path: m.primaryPath(),
		Kind: models.KindSchemaInvalid,
		Err:  models.ErrNoRecoverableState,
	}
}

// Reset removes the primary snapshot and every backup.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Resetting persisted state")

	_ = os.Remove(m.primaryPath())
	for n := 1; n <= m.maxBackups; n++ {
		_ = os.Remove(m.backupPath(n))
	}
	return nil
}

// Backups lists the backup files that currently exist, newest first.
func (m *Manager) Backups() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for n := 1; n <= m.maxBackups; n++ {
		path := m.backupPath(n)
		if _, err := os.Stat(path); err == nil {
			out = append(out, path)
		}
	}
	return out
}

// rotateLocked shifts every backup one generation older, evicts the one
// past the cap, and copies the primary into generation 1.
func (m *Manager) rotateLocked() error {
	oldest := m.backupPath(m.maxBackups)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("evict oldest backup: %w", err)
	}

	for n := m.maxBackups - 1; n >= 1; n-- {
		src := m.backupPath(n)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := os.Rename(src, m.backupPath(n+1)); err != nil {
			return fmt.Errorf("shift backup %d: %w", n, err)
		}
	}

	return copyFile(m.primaryPath(), m.backupPath(1))
}

func (m *Manager) primaryPath() string {
	return filepath.Join(m.stateDir, "state.json")
}

func (m *Manager) backupPath(n int) string {
	return filepath.Join(m.stateDir, fmt.Sprintf("state%d.json", n))
}

// readSnapshot parses and validates one snapshot file.
func readSnapshot(path string) (*PersistedSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snapshot PersistedSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSchemaInvalid, err)
	}

	if snapshot.SchemaVersion != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", models.ErrSchemaInvalid, snapshot.SchemaVersion)
	}
	if err := snapshot.State.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSchemaInvalid, err)
	}

	return &snapshot, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// writeFileSync writes data and flushes it to stable storage through the
// writing handle, so the content is durable before any rename over a live
// file. A failed write removes the partial file.
func writeFileSync(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
