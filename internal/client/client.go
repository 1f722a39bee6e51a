// Package client wires the explorer core together: config, logging, the
// event bus, the state store, filesystem operations, persistence, and the
// recents database. The UI layer talks to a Client and nothing below it.
package client

import (
	"errors"
	"sync"

	"github.com/tabfm/tabfm/internal/config"
	"github.com/tabfm/tabfm/internal/events"
	"github.com/tabfm/tabfm/internal/fsops"
	"github.com/tabfm/tabfm/internal/models"
	"github.com/tabfm/tabfm/internal/persist"
	"github.com/tabfm/tabfm/internal/recents"
	"github.com/tabfm/tabfm/internal/store"
)

// Client provides the high-level API for a tabfm session.
type Client struct {
	Store    *store.Store
	FS       *fsops.Manager
	Bus      *events.Bus
	Persist  *persist.Manager
	Settings *persist.SettingsStore
	Recents  *recents.Store

	config    *config.Config
	logger    *events.Logger
	watcher   *fsops.Watcher
	scheduler *persist.Scheduler

	optsMu   sync.RWMutex
	listOpts fsops.ListOptions
}

// New creates a fully wired client. Persisted state is restored when any
// generation parses; otherwise the session starts from the default state.
// An unrecoverable state file never prevents startup.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	bus := events.NewBus(logger)

	persistMgr, err := persist.NewManager(cfg.Storage.StateDir, cfg.Persist.MaxBackups, logger)
	if err != nil {
		return nil, err
	}

	initial := models.DefaultState(cfg.Session.StartPath)
	if snapshot, err := persistMgr.Load(); err == nil {
		initial = snapshot.State
	} else if errors.Is(err, models.ErrNoRecoverableState) {
		logger.Warn("No recoverable state, starting fresh")
	} else {
		return nil, err
	}

	stateStore, err := store.New(initial, bus, logger)
	if err != nil {
		return nil, err
	}

	recentsStore, err := recents.NewStore(cfg.Storage.RecentsDB, logger)
	if err != nil {
		return nil, err
	}

	client := &Client{
		Store:    stateStore,
		FS:       fsops.NewManager(&cfg.FS, logger),
		Bus:      bus,
		Persist:  persistMgr,
		Settings: persist.NewSettingsStore(cfg.Storage.SettingsFile, logger),
		Recents:  recentsStore,
		config:   cfg,
		logger:   logger.WithField("component", "client"),
	}

	if settings, err := client.Settings.Load(); err == nil {
		client.listOpts.ShowHidden = settings.ShowHidden
	} else {
		logger.WithError(err).Warn("Settings unreadable, using defaults")
	}

	client.scheduler = persist.NewScheduler(
		persistMgr, stateStore.Snapshot, bus, cfg.Persist.Interval, logger)

	if cfg.FS.Watch {
		watcher, err := fsops.NewWatcher(0, logger)
		if err != nil {
			// Watching is best-effort; the session works without it.
			logger.WithError(err).Warn("Directory watching unavailable")
		} else {
			client.watcher = watcher
		}
	}

	return client, nil
}

// ListOptions returns the options applied to directory listings.
func (c *Client) ListOptions() fsops.ListOptions {
	c.optsMu.RLock()
	defer c.optsMu.RUnlock()
	return c.listOpts
}

// SetListOptions changes how directory listings are filtered and sorted.
// It affects subsequent refreshes only; call RefreshTab to re-list.
func (c *Client) SetListOptions(opts fsops.ListOptions) {
	c.optsMu.Lock()
	defer c.optsMu.Unlock()
	c.listOpts = opts
}

// Close persists the final snapshot and releases resources.
func (c *Client) Close() error {
	var firstErr error

	if err := c.Persist.Save(c.Store.Snapshot()); err != nil {
		c.logger.WithError(err).Error("Shutdown save failed")
		firstErr = err
	}

	if c.watcher != nil {
		if err := c.watcher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := c.Recents.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	c.Bus.Close()
	return firstErr
}
