package store_test

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabfm/tabfm/internal/events"
	"github.com/tabfm/tabfm/internal/models"
	"github.com/tabfm/tabfm/internal/store"
)

func newTestStore(t *testing.T, startPath string) (*store.Store, *events.Bus) {
	t.Helper()

	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)
	bus := events.NewBus(logger)

	s, err := store.New(models.DefaultState(startPath), bus, logger)
	require.NoError(t, err)
	return s, bus
}

func TestNewRejectsInvalidState(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)
	bus := events.NewBus(logger)

	_, err := store.New(models.AppState{}, bus, logger)
	assert.Error(t, err)
}

func TestTabLifecycle(t *testing.T) {
	s, _ := newTestStore(t, "/home")

	t.Run("add activates new tab", func(t *testing.T) {
		state, err := s.AddTab("/var")
		require.NoError(t, err)

		assert.Len(t, state.Tabs, 2)
		assert.Equal(t, 1, state.ActiveTabIndex)
		assert.Equal(t, "/var", state.ActiveTab().CurrentPath)
		assert.Equal(t, "var", state.ActiveTab().Title)
	})

	t.Run("closing first tab keeps active tab stable", func(t *testing.T) {
		state := s.Snapshot()
		first := state.Tabs[0]

		state, err := s.CloseTab(first.ID)
		require.NoError(t, err)

		assert.Len(t, state.Tabs, 1)
		assert.Equal(t, 0, state.ActiveTabIndex)
		assert.Equal(t, "/var", state.Tabs[0].CurrentPath)
	})

	t.Run("closing the last tab is rejected", func(t *testing.T) {
		state := s.Snapshot()
		require.Len(t, state.Tabs, 1)

		_, err := s.CloseTab(state.Tabs[0].ID)
		assert.ErrorIs(t, err, models.ErrLastTab)

		// State untouched by the rejected mutation.
		after := s.Snapshot()
		assert.Len(t, after.Tabs, 1)
	})

	t.Run("unknown tab id", func(t *testing.T) {
		_, err := s.CloseTab("no-such-tab")
		assert.ErrorIs(t, err, models.ErrTabNotFound)

		_, err = s.ActivateTab("no-such-tab")
		assert.ErrorIs(t, err, models.ErrTabNotFound)
	})
}

func TestCloseActiveTabActivatesLeftNeighbour(t *testing.T) {
	s, _ := newTestStore(t, "/a")

	_, err := s.AddTab("/b")
	require.NoError(t, err)
	state, err := s.AddTab("/c")
	require.NoError(t, err)
	require.Equal(t, 2, state.ActiveTabIndex)

	state, err = s.CloseTab(state.Tabs[2].ID)
	require.NoError(t, err)

	assert.Equal(t, 1, state.ActiveTabIndex)
	assert.Equal(t, "/b", state.ActiveTab().CurrentPath)
}

func TestNavigationHistory(t *testing.T) {
	s, _ := newTestStore(t, "/home")
	tabID := s.Snapshot().Tabs[0].ID

	t.Run("navigate pushes history and clears future", func(t *testing.T) {
		state, err := s.NavigateTo(tabID, "/home/docs")
		require.NoError(t, err)

		tab, _ := state.TabByID(tabID)
		assert.Equal(t, "/home/docs", tab.CurrentPath)
		assert.Equal(t, []string{"/home"}, tab.History)
		assert.Empty(t, tab.Future)
	})

	t.Run("back swaps stacks", func(t *testing.T) {
		state, err := s.GoBack(tabID)
		require.NoError(t, err)

		tab, _ := state.TabByID(tabID)
		assert.Equal(t, "/home", tab.CurrentPath)
		assert.Empty(t, tab.History)
		assert.Equal(t, []string{"/home/docs"}, tab.Future)
	})

	t.Run("forward restores", func(t *testing.T) {
		state, err := s.GoForward(tabID)
		require.NoError(t, err)

		tab, _ := state.TabByID(tabID)
		assert.Equal(t, "/home/docs", tab.CurrentPath)
		assert.Equal(t, []string{"/home"}, tab.History)
		assert.Empty(t, tab.Future)
	})

	t.Run("forward with empty stack fails", func(t *testing.T) {
		_, err := s.GoForward(tabID)
		assert.ErrorIs(t, err, models.ErrNoHistory)
	})

	t.Run("navigating anywhere clears the forward stack", func(t *testing.T) {
		_, err := s.GoBack(tabID)
		require.NoError(t, err)

		state, err := s.NavigateTo(tabID, "/tmp")
		require.NoError(t, err)

		tab, _ := state.TabByID(tabID)
		assert.Empty(t, tab.Future)
		assert.Equal(t, []string{"/home"}, tab.History)
	})

	t.Run("navigation resets selection", func(t *testing.T) {
		_, err := s.SetSelection(tabID, []string{"a.txt"})
		require.NoError(t, err)

		state, err := s.NavigateTo(tabID, "/var")
		require.NoError(t, err)

		tab, _ := state.TabByID(tabID)
		assert.Empty(t, tab.Selection)
	})
}

func TestApplyListing(t *testing.T) {
	s, _ := newTestStore(t, "/home")
	tabID := s.Snapshot().Tabs[0].ID

	listing := func(path string, names ...string) *models.DirectoryListing {
		entries := make([]models.Entry, len(names))
		for i, name := range names {
			entries[i] = models.Entry{Name: name, Kind: models.EntryFile}
		}
		return &models.DirectoryListing{
			Path:        path,
			Entries:     entries,
			GeneratedAt: time.Now().UTC(),
		}
	}

	t.Run("matching listing is applied", func(t *testing.T) {
		state, err := s.ApplyListing(tabID, listing("/home", "a.txt", "b.txt"))
		require.NoError(t, err)
		assert.Len(t, state.Tabs, 1)
	})

	t.Run("stale listing is rejected without mutation", func(t *testing.T) {
		_, err := s.NavigateTo(tabID, "/var")
		require.NoError(t, err)
		before := s.Snapshot()

		_, err = s.ApplyListing(tabID, listing("/home", "a.txt"))
		assert.ErrorIs(t, err, models.ErrStaleListing)

		after := s.Snapshot()
		assert.Equal(t, before, after)
	})

	t.Run("vanished selected entries are pruned", func(t *testing.T) {
		_, err := s.SetSelection(tabID, []string{"keep.txt", "gone.txt"})
		require.NoError(t, err)

		state, err := s.ApplyListing(tabID, listing("/var", "keep.txt", "other.txt"))
		require.NoError(t, err)

		tab, _ := state.TabByID(tabID)
		assert.Equal(t, map[string]bool{"keep.txt": true}, tab.Selection)
	})
}

func TestEventPerMutation(t *testing.T) {
	s, bus := newTestStore(t, "/home")
	sub := bus.Subscribe(16)
	defer sub.Close()

	state, err := s.AddTab("/var")
	require.NoError(t, err)
	tabID := state.ActiveTab().ID

	_, err = s.NavigateTo(tabID, "/var/log")
	require.NoError(t, err)

	// Rejected mutation publishes nothing.
	_, err = s.GoForward(tabID)
	require.ErrorIs(t, err, models.ErrNoHistory)

	_, err = s.SetUIMode(models.ModeSplitPane)
	require.NoError(t, err)

	wantTypes := []models.EventType{
		models.EventTabAdded,
		models.EventTabNavigated,
		models.EventModeChanged,
	}
	for i, want := range wantTypes {
		select {
		case event := <-sub.C():
			assert.Equal(t, want, event.Type, "event %d", i)
			assert.False(t, event.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatalf("missing event %d (%s)", i, want)
		}
	}

	select {
	case event := <-sub.C():
		t.Fatalf("unexpected extra event: %s", event.Type)
	default:
	}
}

func TestReplaceAndGeometry(t *testing.T) {
	s, bus := newTestStore(t, "/home")
	sub := bus.Subscribe(16)
	defer sub.Close()

	t.Run("window geometry", func(t *testing.T) {
		geom := models.WindowGeometry{Width: 1024, Height: 768, X: 50, Y: 60}
		state, err := s.SetWindowGeometry(geom)
		require.NoError(t, err)
		assert.Equal(t, geom, state.Window)
	})

	t.Run("replace swaps the whole session", func(t *testing.T) {
		restored := models.DefaultState("/restored")
		restored.Mode = models.ModeSplitPane

		state, err := s.Replace(restored)
		require.NoError(t, err)

		assert.Equal(t, "/restored", state.ActiveTab().CurrentPath)
		assert.Equal(t, models.ModeSplitPane, state.Mode)
	})

	t.Run("replacing with invalid state is rejected", func(t *testing.T) {
		_, err := s.Replace(models.AppState{})
		assert.Error(t, err)
		assert.Equal(t, "/restored", s.Snapshot().ActiveTab().CurrentPath)
	})

	wantTypes := []models.EventType{models.EventWindowChanged, models.EventStateLoaded}
	for i, want := range wantTypes {
		select {
		case event := <-sub.C():
			assert.Equal(t, want, event.Type, "event %d", i)
		case <-time.After(time.Second):
			t.Fatalf("missing event %d (%s)", i, want)
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s, _ := newTestStore(t, "/home")

	snap := s.Snapshot()
	snap.Tabs[0].CurrentPath = "/mutated"
	snap.Tabs[0].Selection["hacked"] = true

	after := s.Snapshot()
	assert.Equal(t, "/home", after.Tabs[0].CurrentPath)
	assert.Empty(t, after.Tabs[0].Selection)
}

func TestReadProjection(t *testing.T) {
	s, _ := newTestStore(t, "/home")

	count := store.Read(s, func(st models.AppState) int { return len(st.Tabs) })
	assert.Equal(t, 1, count)

	path := store.Read(s, func(st models.AppState) string {
		return st.Tabs[0].CurrentPath
	})
	assert.Equal(t, "/home", path)
}

func TestConcurrentMutations(t *testing.T) {
	s, bus := newTestStore(t, "/home")
	sub := bus.Subscribe(4096)
	defer sub.Close()

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := s.AddTab(fmt.Sprintf("/w%d/i%d", w, i))
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	state := s.Snapshot()
	assert.Len(t, state.Tabs, 1+workers*perWorker)
	assert.NoError(t, state.Validate())

	// One event per successful mutation, none dropped at this buffer size.
	assert.Zero(t, sub.Dropped())
	received := 0
	for {
		select {
		case <-sub.C():
			received++
		default:
			assert.Equal(t, workers*perWorker, received)
			return
		}
	}
}
