package client

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tabfm/tabfm/internal/events"
	"github.com/tabfm/tabfm/internal/fsops"
	"github.com/tabfm/tabfm/internal/models"
	"github.com/tabfm/tabfm/internal/persist"
	"github.com/tabfm/tabfm/internal/store"
)

const (
	listRetries      = 3
	listRetryInitial = 100 * time.Millisecond
)

// Run starts the background tasks (persistence scheduler, recents
// tracker, directory watcher) and blocks until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return c.scheduler.Run(ctx) })
	g.Go(func() error { return c.Recents.Track(ctx, c.Bus) })

	if c.watcher != nil {
		g.Go(func() error { return c.watchLoop(ctx) })
	}

	return g.Wait()
}

// OpenTab opens a new tab at path and loads its listing.
func (c *Client) OpenTab(ctx context.Context, path string) (models.AppState, error) {
	state, err := c.Store.AddTab(path)
	if err != nil {
		return state, err
	}

	tab := state.ActiveTab()
	if tab == nil {
		return state, models.ErrTabNotFound
	}
	return c.RefreshTab(ctx, tab.ID)
}

// Navigate points a tab at a new directory and loads its listing.
func (c *Client) Navigate(ctx context.Context, tabID, path string) (models.AppState, error) {
	state, err := c.Store.NavigateTo(tabID, path)
	if err != nil {
		return state, err
	}
	return c.RefreshTab(ctx, tabID)
}

// Back navigates a tab to the previous directory in its history.
func (c *Client) Back(ctx context.Context, tabID string) (models.AppState, error) {
	state, err := c.Store.GoBack(tabID)
	if err != nil {
		return state, err
	}
	return c.RefreshTab(ctx, tabID)
}

// Forward navigates a tab to the next directory in its forward stack.
func (c *Client) Forward(ctx context.Context, tabID string) (models.AppState, error) {
	state, err := c.Store.GoForward(tabID)
	if err != nil {
		return state, err
	}
	return c.RefreshTab(ctx, tabID)
}

// RefreshTab lists a tab's current directory and routes the result back
// into the store. A listing that arrives after the tab moved on is
// discarded silently; a listing failure is returned as a typed error and
// publishes nothing.
func (c *Client) RefreshTab(ctx context.Context, tabID string) (models.AppState, error) {
	ctx = events.WithTabID(events.WithLogger(ctx, c.logger), tabID)

	path := store.Read(c.Store, func(s models.AppState) string {
		if tab, _ := s.TabByID(tabID); tab != nil {
			return tab.CurrentPath
		}
		return ""
	})
	if path == "" {
		return c.Store.Snapshot(), models.ErrTabNotFound
	}

	listing, err := c.listWithRetry(ctx, path)
	if err != nil {
		return c.Store.Snapshot(), err
	}

	if c.watcher != nil {
		if state := c.Store.Snapshot(); state.ActiveTab() != nil && state.ActiveTab().ID == tabID {
			if err := c.watcher.SetPath(path); err != nil {
				c.logger.WithError(err).WithField("path", path).Debug("Cannot watch directory")
			}
		}
	}

	state, err := c.Store.ApplyListing(tabID, listing)
	if errors.Is(err, models.ErrStaleListing) {
		// Tab navigated away while we were listing.
		events.FromContext(ctx).WithField("path", path).Debug("Discarded stale listing")
		return state, nil
	}
	return state, err
}

// Transfer runs a copy or move and refreshes the active tab afterwards.
// Progress updates stream to the optional channel.
func (c *Client) Transfer(ctx context.Context, move bool, src, dst string, progress chan<- fsops.Progress) error {
	var err error
	if move {
		err = c.FS.Move(ctx, src, dst, progress)
	} else {
		err = c.FS.Copy(ctx, src, dst, fsops.CopyOptions{}, progress)
	}
	if err != nil {
		return err
	}
	return c.refreshActive(ctx)
}

// Delete removes an entry and refreshes the active tab.
func (c *Client) Delete(ctx context.Context, path string, recursive bool, progress chan<- fsops.Progress) (*fsops.DeleteResult, error) {
	result, err := c.FS.Delete(ctx, path, fsops.DeleteOptions{Recursive: recursive}, progress)
	if err != nil {
		return result, err
	}
	return result, c.refreshActive(ctx)
}

// ReloadSettings re-reads the settings document, applies the preferences
// that affect listings, and notifies subscribers.
func (c *Client) ReloadSettings() (*persist.Settings, error) {
	settings, err := c.Settings.Load()
	if err != nil {
		return nil, err
	}

	opts := c.ListOptions()
	opts.ShowHidden = settings.ShowHidden
	c.SetListOptions(opts)

	c.Bus.Publish(models.StateChangeEvent{
		Type:      models.EventSettingsReloaded,
		Timestamp: time.Now().UTC(),
	})
	return settings, nil
}

func (c *Client) refreshActive(ctx context.Context) error {
	tabID := store.Read(c.Store, func(s models.AppState) string {
		if tab := s.ActiveTab(); tab != nil {
			return tab.ID
		}
		return ""
	})
	if tabID == "" {
		return nil
	}
	_, err := c.RefreshTab(ctx, tabID)
	return err
}

// listWithRetry retries transient I/O failures with bounded exponential
// backoff. Deterministic failures (NotFound, PermissionDenied, …) return
// immediately.
func (c *Client) listWithRetry(ctx context.Context, path string) (*models.DirectoryListing, error) {
	delay := listRetryInitial

	opts := c.ListOptions()

	var lastErr error
	for attempt := 0; attempt < listRetries; attempt++ {
		listing, err := c.FS.List(ctx, path, opts)
		if err == nil {
			return listing, nil
		}
		if !models.IsTransient(err) {
			return nil, err
		}
		lastErr = err

		c.logger.WithError(err).WithFields(map[string]interface{}{
			"path":    path,
			"attempt": attempt + 1,
		}).Warn("Listing failed, retrying")

		select {
		case <-ctx.Done():
			return nil, models.NewOpError("list", path, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, lastErr
}

// watchLoop refreshes tabs whose directory contents changed underneath
// them.
func (c *Client) watchLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case dir, ok := <-c.watcher.Changed():
			if !ok {
				return nil
			}
			tabIDs := store.Read(c.Store, func(s models.AppState) []string {
				var ids []string
				for _, tab := range s.Tabs {
					if tab.CurrentPath == dir {
						ids = append(ids, tab.ID)
					}
				}
				return ids
			})
			for _, id := range tabIDs {
				if _, err := c.RefreshTab(ctx, id); err != nil {
					c.logger.WithError(err).WithField("tab_id", id).Debug("Watch refresh failed")
				}
			}
		}
	}
}
