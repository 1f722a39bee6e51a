// Package recents tracks visited directories and user bookmarks in a
// local SQLite database. It consumes navigation events from the bus and
// never touches application state.
package recents

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tabfm/tabfm/internal/events"
	"github.com/tabfm/tabfm/internal/models"
)

const schemaVersion = 1

// Location is one visited directory.
type Location struct {
	Path        string
	VisitCount  int
	LastVisited time.Time
}

// Bookmark is a user-pinned directory.
type Bookmark struct {
	Path      string
	CreatedAt time.Time
}

// Store records visits and bookmarks.
type Store struct {
	db     *sql.DB
	logger *events.Logger
}

// NewStore opens (or creates) the recents database.
func NewStore(dbPath string, logger *events.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger.WithField("component", "recents"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS visits (
        path TEXT PRIMARY KEY,
        visit_count INTEGER NOT NULL DEFAULT 0,
        last_visited TIMESTAMP NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_visits_last ON visits(last_visited);

    CREATE TABLE IF NOT EXISTS bookmarks (
        path TEXT PRIMARY KEY,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS schema_info (
        version INTEGER PRIMARY KEY
    );

    INSERT OR IGNORE INTO schema_info (version) VALUES (?);
    `

	if _, err := s.db.Exec(schema, schemaVersion); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// RecordVisit upserts a visit to path.
func (s *Store) RecordVisit(path string, at time.Time) error {
	_, err := s.db.Exec(`
        INSERT INTO visits (path, visit_count, last_visited) VALUES (?, 1, ?)
        ON CONFLICT(path) DO UPDATE SET
            visit_count = visit_count + 1,
            last_visited = excluded.last_visited
    `, path, at.UTC())
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// Recent returns up to limit locations, most recently visited first.
func (s *Store) Recent(limit int) ([]Location, error) {
	rows, err := s.db.Query(`
        SELECT path, visit_count, last_visited FROM visits
        ORDER BY last_visited DESC LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query recents: %w", err)
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.Path, &loc.VisitCount, &loc.LastVisited); err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// AddBookmark pins a directory.
func (s *Store) AddBookmark(path string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO bookmarks (path) VALUES (?)`, path)
	if err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

// RemoveBookmark unpins a directory.
func (s *Store) RemoveBookmark(path string) error {
	_, err := s.db.Exec(`DELETE FROM bookmarks WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}

// Bookmarks returns all bookmarks, oldest first.
func (s *Store) Bookmarks() ([]Bookmark, error) {
	rows, err := s.db.Query(`SELECT path, created_at FROM bookmarks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var out []Bookmark
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.Path, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Track consumes navigation events from the bus until ctx is cancelled,
// recording every visited directory.
func (s *Store) Track(ctx context.Context, bus *events.Bus) error {
	sub := bus.Subscribe(events.DefaultSubscriberBuffer)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.C():
			if !ok {
				return nil
			}
			if event.Type != models.EventTabNavigated && event.Type != models.EventTabAdded {
				continue
			}
			if event.Path == "" {
				continue
			}
			if err := s.RecordVisit(event.Path, event.Timestamp); err != nil {
				s.logger.WithError(err).WithField("path", event.Path).Warn("Failed to record visit")
			}
		}
	}
}
