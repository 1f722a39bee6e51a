package fsops_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabfm/tabfm/internal/fsops"
	"github.com/tabfm/tabfm/internal/models"
)

func entryNames(entries []models.Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func TestSortEntries(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	entries := func() []models.Entry {
		return []models.Entry{
			{Name: "notes.txt", Kind: models.EntryFile, Size: 300, Modified: base.Add(2 * time.Hour)},
			{Name: "archive.zip", Kind: models.EntryFile, Size: 100, Modified: base.Add(3 * time.Hour)},
			{Name: "src", Kind: models.EntryDirectory, Modified: base},
			{Name: "Readme.md", Kind: models.EntryFile, Size: 200, Modified: base.Add(time.Hour)},
		}
	}

	tests := []struct {
		name string
		opts fsops.ListOptions
		want []string
	}{
		{
			name: "by name ascending",
			opts: fsops.ListOptions{Sort: fsops.SortByName},
			want: []string{"src", "archive.zip", "notes.txt", "Readme.md"},
		},
		{
			name: "by name descending keeps directories first",
			opts: fsops.ListOptions{Sort: fsops.SortByName, Order: fsops.SortDescending},
			want: []string{"src", "Readme.md", "notes.txt", "archive.zip"},
		},
		{
			name: "by size",
			opts: fsops.ListOptions{Sort: fsops.SortBySize},
			want: []string{"src", "archive.zip", "Readme.md", "notes.txt"},
		},
		{
			name: "by modified descending",
			opts: fsops.ListOptions{Sort: fsops.SortByModified, Order: fsops.SortDescending},
			want: []string{"src", "archive.zip", "notes.txt", "Readme.md"},
		},
		{
			name: "by type groups extensions",
			opts: fsops.ListOptions{Sort: fsops.SortByType},
			want: []string{"src", "Readme.md", "notes.txt", "archive.zip"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := entries()
			fsops.SortEntries(got, tt.opts)
			assert.Equal(t, tt.want, entryNames(got))
		})
	}
}

func TestSortEntriesNaturalOrder(t *testing.T) {
	entries := []models.Entry{
		{Name: "file10.txt", Kind: models.EntryFile},
		{Name: "file2.txt", Kind: models.EntryFile},
		{Name: "File1.txt", Kind: models.EntryFile},
	}

	fsops.SortEntries(entries, fsops.ListOptions{Sort: fsops.SortByName})
	assert.Equal(t, []string{"File1.txt", "file2.txt", "file10.txt"}, entryNames(entries))
}

func TestListHiddenEntries(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "visible.txt"), 1)
	writeFile(t, filepath.Join(dir, ".hidden.txt"), 1)
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))

	t.Run("hidden entries skipped by default", func(t *testing.T) {
		listing, err := mgr.List(ctx, dir, fsops.ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"visible.txt"}, entryNames(listing.Entries))
	})

	t.Run("show hidden includes dotfiles", func(t *testing.T) {
		listing, err := mgr.List(ctx, dir, fsops.ListOptions{ShowHidden: true})
		require.NoError(t, err)
		assert.Equal(t, []string{".git", ".hidden.txt", "visible.txt"}, entryNames(listing.Entries))
	})
}
