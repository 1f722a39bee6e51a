package store

import (
	"github.com/tabfm/tabfm/internal/models"
)

// AddTab opens a new tab browsing path and makes it active.
func (s *Store) AddTab(path string) (models.AppState, error) {
	return s.Mutate(func(st *models.AppState) (models.StateChangeEvent, error) {
		tab := models.NewTab(path)
		st.Tabs = append(st.Tabs, tab)
		st.ActiveTabIndex = len(st.Tabs) - 1

		return models.StateChangeEvent{
			Type:  models.EventTabAdded,
			TabID: tab.ID,
			Path:  path,
		}, nil
	})
}

// CloseTab removes the tab with the given ID. Closing the last remaining
// tab is rejected.
func (s *Store) CloseTab(id string) (models.AppState, error) {
	return s.Mutate(func(st *models.AppState) (models.StateChangeEvent, error) {
		_, idx := st.TabByID(id)
		if idx < 0 {
			return models.StateChangeEvent{}, models.ErrTabNotFound
		}
		if len(st.Tabs) == 1 {
			return models.StateChangeEvent{}, models.ErrLastTab
		}

		st.Tabs = append(st.Tabs[:idx], st.Tabs[idx+1:]...)

		// Keep the active tab stable where possible: removing a tab to the
		// left shifts the index; removing the active tab activates its left
		// neighbour.
		switch {
		case st.ActiveTabIndex > idx:
			st.ActiveTabIndex--
		case st.ActiveTabIndex == idx && st.ActiveTabIndex > 0:
			st.ActiveTabIndex--
		}
		if st.ActiveTabIndex >= len(st.Tabs) {
			st.ActiveTabIndex = len(st.Tabs) - 1
		}

		return models.StateChangeEvent{
			Type:  models.EventTabRemoved,
			TabID: id,
		}, nil
	})
}

// ActivateTab makes the tab with the given ID active.
func (s *Store) ActivateTab(id string) (models.AppState, error) {
	return s.Mutate(func(st *models.AppState) (models.StateChangeEvent, error) {
		tab, idx := st.TabByID(id)
		if idx < 0 {
			return models.StateChangeEvent{}, models.ErrTabNotFound
		}

		st.ActiveTabIndex = idx

		return models.StateChangeEvent{
			Type:  models.EventTabActivated,
			TabID: id,
			Path:  tab.CurrentPath,
		}, nil
	})
}

// NavigateTo points a tab at a new directory. The previous path is pushed
// onto the back stack, the forward stack is cleared, and the selection is
// reset.
func (s *Store) NavigateTo(tabID, path string) (models.AppState, error) {
	return s.Mutate(func(st *models.AppState) (models.StateChangeEvent, error) {
		tab, idx := st.TabByID(tabID)
		if idx < 0 {
			return models.StateChangeEvent{}, models.ErrTabNotFound
		}

		if tab.CurrentPath != path {
			tab.History = append(tab.History, tab.CurrentPath)
			tab.Future = nil
			tab.CurrentPath = path
			tab.Title = models.TabTitle(path)
			tab.Selection = make(map[string]bool)
		}

		return models.StateChangeEvent{
			Type:  models.EventTabNavigated,
			TabID: tabID,
			Path:  path,
		}, nil
	})
}

// GoBack navigates a tab to the previous path in its history.
func (s *Store) GoBack(tabID string) (models.AppState, error) {
	return s.Mutate(func(st *models.AppState) (models.StateChangeEvent, error) {
		tab, idx := st.TabByID(tabID)
		if idx < 0 {
			return models.StateChangeEvent{}, models.ErrTabNotFound
		}
		if len(tab.History) == 0 {
			return models.StateChangeEvent{}, models.ErrNoHistory
		}

		prev := tab.History[len(tab.History)-1]
		tab.History = tab.History[:len(tab.History)-1]
		tab.Future = append(tab.Future, tab.CurrentPath)
		tab.CurrentPath = prev
		tab.Title = models.TabTitle(prev)
		tab.Selection = make(map[string]bool)

		return models.StateChangeEvent{
			Type:  models.EventTabNavigated,
			TabID: tabID,
			Path:  prev,
		}, nil
	})
}

// GoForward navigates a tab to the next path in its forward stack.
func (s *Store) GoForward(tabID string) (models.AppState, error) {
	return s.Mutate(func(st *models.AppState) (models.StateChangeEvent, error) {
		tab, idx := st.TabByID(tabID)
		if idx < 0 {
			return models.StateChangeEvent{}, models.ErrTabNotFound
		}
		if len(tab.Future) == 0 {
			return models.StateChangeEvent{}, models.ErrNoHistory
		}

		next := tab.Future[len(tab.Future)-1]
		tab.Future = tab.Future[:len(tab.Future)-1]
		tab.History = append(tab.History, tab.CurrentPath)
		tab.CurrentPath = next
		tab.Title = models.TabTitle(next)
		tab.Selection = make(map[string]bool)

		return models.StateChangeEvent{
			Type:  models.EventTabNavigated,
			TabID: tabID,
			Path:  next,
		}, nil
	})
}

// SetSelection replaces a tab's selection with the given entry names.
func (s *Store) SetSelection(tabID string, names []string) (models.AppState, error) {
	return s.Mutate(func(st *models.AppState) (models.StateChangeEvent, error) {
		tab, idx := st.TabByID(tabID)
		if idx < 0 {
			return models.StateChangeEvent{}, models.ErrTabNotFound
		}

		tab.Selection = make(map[string]bool, len(names))
		for _, name := range names {
			tab.Selection[name] = true
		}

		return models.StateChangeEvent{
			Type:  models.EventSelectionChanged,
			TabID: tabID,
			Path:  tab.CurrentPath,
		}, nil
	})
}

// ClearSelection empties a tab's selection.
func (s *Store) ClearSelection(tabID string) (models.AppState, error) {
	return s.SetSelection(tabID, nil)
}

// ApplyListing records that a directory listing is ready for a tab. A
// listing whose path no longer matches the tab's current path is stale and
// is discarded without mutating anything; selected names that vanished
// from the directory are pruned.
func (s *Store) ApplyListing(tabID string, listing *models.DirectoryListing) (models.AppState, error) {
	return s.Mutate(func(st *models.AppState) (models.StateChangeEvent, error) {
		tab, idx := st.TabByID(tabID)
		if idx < 0 {
			return models.StateChangeEvent{}, models.ErrTabNotFound
		}
		if tab.CurrentPath != listing.Path {
			return models.StateChangeEvent{}, models.ErrStaleListing
		}

		if len(tab.Selection) > 0 {
			present := make(map[string]bool, len(listing.Entries))
			for _, e := range listing.Entries {
				present[e.Name] = true
			}
			for name := range tab.Selection {
				if !present[name] {
					delete(tab.Selection, name)
				}
			}
		}

		return models.StateChangeEvent{
			Type:       models.EventListingReady,
			TabID:      tabID,
			Path:       listing.Path,
			EntryCount: len(listing.Entries),
		}, nil
	})
}

// SetWindowGeometry records the window size and position.
func (s *Store) SetWindowGeometry(geom models.WindowGeometry) (models.AppState, error) {
	return s.Mutate(func(st *models.AppState) (models.StateChangeEvent, error) {
		st.Window = geom
		return models.StateChangeEvent{Type: models.EventWindowChanged}, nil
	})
}

// SetUIMode switches the pane layout mode.
func (s *Store) SetUIMode(mode models.UIMode) (models.AppState, error) {
	return s.Mutate(func(st *models.AppState) (models.StateChangeEvent, error) {
		st.Mode = mode
		return models.StateChangeEvent{Type: models.EventModeChanged}, nil
	})
}

// Replace swaps in a whole state, used when restoring a persisted session.
func (s *Store) Replace(state models.AppState) (models.AppState, error) {
	return s.Mutate(func(st *models.AppState) (models.StateChangeEvent, error) {
		*st = state.Clone()
		return models.StateChangeEvent{Type: models.EventStateLoaded}, nil
	})
}
