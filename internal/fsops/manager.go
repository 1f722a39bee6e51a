// Package fsops implements asynchronous, cancellable filesystem operations:
// directory listing and file/folder mutation with typed errors and progress
// reporting. It holds no application state; results are routed back into
// the state store by the orchestrating layer.
package fsops

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tabfm/tabfm/internal/config"
	"github.com/tabfm/tabfm/internal/events"
	"github.com/tabfm/tabfm/internal/models"
)

// Manager performs filesystem operations.
type Manager struct {
	chunkSize int
	batchSize int
	logger    *events.Logger
}

// NewManager creates a filesystem manager.
func NewManager(cfg *config.FSConfig, logger *events.Logger) *Manager {
	return &Manager{
		chunkSize: cfg.CopyChunkSize,
		batchSize: cfg.ListBatchSize,
		logger:    logger.WithField("component", "fsops"),
	}
}

// List reads a directory and returns its entries filtered and ordered per
// opts, directories first within the chosen order. Errors are classified
// into the error taxonomy.
func (m *Manager) List(ctx context.Context, path string, opts ListOptions) (*models.DirectoryListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewOpError("list", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, models.NewOpError("list", path, err)
	}
	if !info.IsDir() {
		return nil, models.NewOpError("list", path, syscall.ENOTDIR)
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, models.NewOpError("list", path, err)
	}

	entries := make([]models.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !opts.ShowHidden && IsHidden(de.Name()) {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info; skip it.
			continue
		}
		entries = append(entries, models.Entry{
			Name:     de.Name(),
			Kind:     models.KindOfMode(fi.Mode()),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}

	SortEntries(entries, opts)

	m.logger.WithFields(map[string]interface{}{
		"path":    path,
		"entries": len(entries),
	}).Debug("Listed directory")

	return &models.DirectoryListing{
		Path:        path,
		Entries:     entries,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// ListStream reads a directory in batches, for large directories where the
// caller wants entries before the full listing materializes. Hidden-entry
// filtering from opts applies; batches arrive in directory order, unsorted.
// The entry channel is closed when the directory is exhausted; the error
// channel delivers at most one error.
func (m *Manager) ListStream(ctx context.Context, path string, opts ListOptions) (<-chan []models.Entry, <-chan error) {
	batches := make(chan []models.Entry)
	errc := make(chan error, 1)

	go func() {
		defer close(batches)
		defer close(errc)

		dir, err := os.Open(path)
		if err != nil {
			errc <- models.NewOpError("list", path, err)
			return
		}
		defer dir.Close()

		if info, err := dir.Stat(); err != nil {
			errc <- models.NewOpError("list", path, err)
			return
		} else if !info.IsDir() {
			errc <- models.NewOpError("list", path, syscall.ENOTDIR)
			return
		}

		for {
			if err := ctx.Err(); err != nil {
				errc <- models.NewOpError("list", path, err)
				return
			}

			dirEntries, err := dir.ReadDir(m.batchSize)
			if len(dirEntries) > 0 {
				batch := make([]models.Entry, 0, len(dirEntries))
				for _, de := range dirEntries {
					if !opts.ShowHidden && IsHidden(de.Name()) {
						continue
					}
					fi, infoErr := de.Info()
					if infoErr != nil {
						continue
					}
					batch = append(batch, models.Entry{
						Name:     de.Name(),
						Kind:     models.KindOfMode(fi.Mode()),
						Size:     fi.Size(),
						Modified: fi.ModTime(),
					})
				}
				if len(batch) > 0 {
					select {
					case batches <- batch:
					case <-ctx.Done():
						errc <- models.NewOpError("list", path, ctx.Err())
						return
					}
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					errc <- models.NewOpError("list", path, err)
				}
				return
			}
		}
	}()

	return batches, errc
}

// CreateFile creates an empty file. An existing path is an error.
func (m *Manager) CreateFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return models.NewOpError("create", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return models.NewOpError("create", path, err)
	}
	return f.Close()
}

// CreateFolder creates a directory. An existing path is an error.
func (m *Manager) CreateFolder(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return models.NewOpError("mkdir", path, err)
	}

	if err := os.Mkdir(path, 0755); err != nil {
		return models.NewOpError("mkdir", path, err)
	}
	return nil
}

// Rename renames an entry within its directory. A rename onto an existing
// path is rejected.
func (m *Manager) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return models.NewOpError("rename", oldPath, err)
	}

	if _, err := os.Lstat(newPath); err == nil {
		return models.NewOpError("rename", newPath, os.ErrExist)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return models.NewOpError("rename", oldPath, err)
	}

	m.logger.WithFields(map[string]interface{}{
		"old": oldPath,
		"new": newPath,
	}).Debug("Renamed entry")

	return nil
}

// opID returns a unique ID for correlating an operation's log lines.
func opID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
