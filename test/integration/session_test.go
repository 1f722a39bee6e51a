package integration_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabfm/tabfm/internal/client"
	"github.com/tabfm/tabfm/internal/models"
	"github.com/tabfm/tabfm/test/testutil"
)

func TestSessionSurvivesRestart(t *testing.T) {
	cfg := testutil.TestConfig(t)
	logger := testutil.NewTestLogger()

	dirA := t.TempDir()
	dirB := t.TempDir()
	testutil.MakeTree(t, dirA, map[string]string{"a.txt": "a"})
	testutil.MakeTree(t, dirB, map[string]string{"b.txt": "b"})

	ctx := context.Background()

	// First run: open tabs, navigate, shut down cleanly.
	c, err := client.New(cfg, logger)
	require.NoError(t, err)

	state, err := c.OpenTab(ctx, dirA)
	require.NoError(t, err)
	assert.Len(t, state.Tabs, 2) // start tab plus the new one

	state, err = c.OpenTab(ctx, dirB)
	require.NoError(t, err)
	tabB := state.ActiveTab().ID

	state, err = c.Navigate(ctx, tabB, dirA)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	// Second run: the persisted session comes back intact.
	c2, err := client.New(cfg, logger)
	require.NoError(t, err)
	defer c2.Close()

	restored := c2.Store.Snapshot()
	assert.Len(t, restored.Tabs, 3)
	assert.Equal(t, state.ActiveTabIndex, restored.ActiveTabIndex)

	tab, _ := restored.TabByID(tabB)
	require.NotNil(t, tab)
	assert.Equal(t, dirA, tab.CurrentPath)
	assert.Equal(t, []string{dirB}, tab.History)
}

func TestFreshStartWhenNothingPersisted(t *testing.T) {
	cfg := testutil.TestConfig(t)
	c, err := client.New(cfg, testutil.NewTestLogger())
	require.NoError(t, err)
	defer c.Close()

	state := c.Store.Snapshot()
	require.Len(t, state.Tabs, 1)
	assert.Equal(t, cfg.Session.StartPath, state.Tabs[0].CurrentPath)
	assert.Equal(t, models.ModeSinglePane, state.Mode)
}

func TestRecoveryFromCorruptPrimary(t *testing.T) {
	cfg := testutil.TestConfig(t)
	logger := testutil.NewTestLogger()
	dir := t.TempDir()

	c, err := client.New(cfg, logger)
	require.NoError(t, err)
	_, err = c.OpenTab(context.Background(), dir)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	// Simulate a crash that mangled the primary snapshot.
	primary := filepath.Join(cfg.Storage.StateDir, "state.json")
	require.NoError(t, os.WriteFile(primary, []byte("{truncated"), 0600))

	c2, err := client.New(cfg, logger)
	require.NoError(t, err)
	defer c2.Close()

	state := c2.Store.Snapshot()
	assert.Len(t, state.Tabs, 2)
	assert.Equal(t, dir, state.ActiveTab().CurrentPath)
}

func TestListingReflectsDirectory(t *testing.T) {
	cfg := testutil.TestConfig(t)
	c, err := client.New(cfg, testutil.NewTestLogger())
	require.NoError(t, err)
	defer c.Close()

	dir := t.TempDir()
	testutil.MakeTree(t, dir, map[string]string{
		"notes.txt":     "n",
		"sub/inner.txt": "i",
	})

	_, err = c.OpenTab(context.Background(), dir)
	require.NoError(t, err)

	listing, err := c.FS.List(context.Background(), dir, c.ListOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"sub", "notes.txt"}, testutil.EntryNames(listing))
}

func TestShowHiddenFollowsSettings(t *testing.T) {
	cfg := testutil.TestConfig(t)
	logger := testutil.NewTestLogger()

	c, err := client.New(cfg, logger)
	require.NoError(t, err)
	assert.False(t, c.ListOptions().ShowHidden)

	dir := t.TempDir()
	testutil.MakeTree(t, dir, map[string]string{
		".dotfile":  "d",
		"plain.txt": "p",
	})

	listing, err := c.FS.List(context.Background(), dir, c.ListOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"plain.txt"}, testutil.EntryNames(listing))

	settings, err := c.Settings.Load()
	require.NoError(t, err)
	settings.ShowHidden = true
	require.NoError(t, c.Settings.Save(settings))

	_, err = c.ReloadSettings()
	require.NoError(t, err)
	assert.True(t, c.ListOptions().ShowHidden)

	listing, err = c.FS.List(context.Background(), dir, c.ListOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{".dotfile", "plain.txt"}, testutil.EntryNames(listing))
	require.NoError(t, c.Close())

	// A fresh session picks the preference up at startup.
	c2, err := client.New(cfg, logger)
	require.NoError(t, err)
	defer c2.Close()
	assert.True(t, c2.ListOptions().ShowHidden)
}

func TestTransferThroughSession(t *testing.T) {
	cfg := testutil.TestConfig(t)
	c, err := client.New(cfg, testutil.NewTestLogger())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	src := t.TempDir()
	dst := t.TempDir()
	testutil.MakeTree(t, src, map[string]string{
		"doc.txt":       "hello",
		"sub/photo.raw": "pixels",
	})

	_, err = c.OpenTab(ctx, dst)
	require.NoError(t, err)

	require.NoError(t, c.Transfer(ctx, false, src, filepath.Join(dst, "copy"), nil))

	data, err := os.ReadFile(filepath.Join(dst, "copy", "doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	result, err := c.Delete(ctx, filepath.Join(dst, "copy"), true, nil)
	require.NoError(t, err)
	assert.Len(t, result.Removed, 4)
}

func TestRunTracksRecents(t *testing.T) {
	cfg := testutil.TestConfig(t)
	c, err := client.New(cfg, testutil.NewTestLogger())
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	// Let the background subscribers attach before navigating.
	time.Sleep(50 * time.Millisecond)

	dir := t.TempDir()
	_, err = c.OpenTab(ctx, dir)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		locations, err := c.Recents.Recent(10)
		if err != nil {
			return false
		}
		for _, loc := range locations {
			if loc.Path == dir {
				return true
			}
		}
		return false
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestPeriodicSaveWhileRunning(t *testing.T) {
	cfg := testutil.TestConfig(t)
	c, err := client.New(cfg, testutil.NewTestLogger())
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	dir := t.TempDir()
	_, err = c.OpenTab(ctx, dir)
	require.NoError(t, err)

	// The 50ms interval persists the mutation without an explicit save.
	primary := filepath.Join(cfg.Storage.StateDir, "state.json")
	require.Eventually(t, func() bool {
		snapshot, err := c.Persist.Load()
		return err == nil && len(snapshot.State.Tabs) == 2
	}, 3*time.Second, 50*time.Millisecond, "no periodic snapshot at %s", primary)

	cancel()
	require.NoError(t, <-done)
}
