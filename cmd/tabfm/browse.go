package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tabfm/tabfm/internal/fsops"
	"github.com/tabfm/tabfm/internal/models"
)

var browseCmd = &cobra.Command{
	Use:   "browse [path]",
	Short: "List a directory in the session's active tab",
	Long: `Browse opens the given directory in the active tab (or a new tab
with --new-tab) and prints its contents. Without a path it refreshes
and prints the directory the active tab was left on.`,
	Example: `  tabfm browse /var/log
  tabfm browse --new-tab ~/projects
  tabfm browse --sort size --desc
  tabfm browse --hidden`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

var (
	browseNewTab bool
	browseSort   string
	browseDesc   bool
	browseHidden bool
)

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().BoolVarP(&browseNewTab, "new-tab", "t", false,
		"Open the path in a new tab instead of the active one")
	browseCmd.Flags().StringVarP(&browseSort, "sort", "s", "name",
		"Sort entries by: name, size, modified, type")
	browseCmd.Flags().BoolVar(&browseDesc, "desc", false,
		"Sort in descending order")
	browseCmd.Flags().BoolVar(&browseHidden, "hidden", false,
		"Show hidden entries regardless of settings")
}

func browseListOptions() (fsops.ListOptions, error) {
	opts := appClient.ListOptions()

	switch key := fsops.SortKey(browseSort); key {
	case fsops.SortByName, fsops.SortBySize, fsops.SortByModified, fsops.SortByType:
		opts.Sort = key
	default:
		return opts, fmt.Errorf("unknown sort key %q", browseSort)
	}

	opts.Order = fsops.SortAscending
	if browseDesc {
		opts.Order = fsops.SortDescending
	}
	if browseHidden {
		opts.ShowHidden = true
	}
	return opts, nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	opts, err := browseListOptions()
	if err != nil {
		return err
	}
	appClient.SetListOptions(opts)

	var state models.AppState

	switch {
	case len(args) == 1:
		path, perr := filepath.Abs(args[0])
		if perr != nil {
			return fmt.Errorf("resolve path: %w", perr)
		}
		if browseNewTab {
			state, err = appClient.OpenTab(ctx, path)
		} else {
			tab := appClient.Store.Snapshot().ActiveTab()
			if tab == nil {
				state, err = appClient.OpenTab(ctx, path)
			} else {
				state, err = appClient.Navigate(ctx, tab.ID, path)
			}
		}
	default:
		tab := appClient.Store.Snapshot().ActiveTab()
		if tab == nil {
			return models.ErrTabNotFound
		}
		state, err = appClient.RefreshTab(ctx, tab.ID)
	}
	if err != nil {
		return err
	}

	tab := state.ActiveTab()
	listing, lerr := appClient.FS.List(ctx, tab.CurrentPath, opts)
	if lerr != nil {
		return lerr
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"tabs":       len(state.Tabs),
			"active_tab": state.ActiveTabIndex,
			"path":       tab.CurrentPath,
			"entries":    listing.Entries,
		})
		return nil
	}

	printTabs(state)
	printListing(listing)
	return nil
}

func printTabs(state models.AppState) {
	for i, tab := range state.Tabs {
		marker := " "
		if i == state.ActiveTabIndex {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s  %s\n", marker, i, tab.Title, tab.CurrentPath)
	}
	fmt.Println()
}

func printListing(listing *models.DirectoryListing) {
	for _, entry := range listing.Entries {
		switch entry.Kind {
		case models.EntryDirectory:
			dirColor.Printf("%s/\n", entry.Name)
		case models.EntrySymlink:
			fmt.Printf("%s@\n", entry.Name)
		default:
			fmt.Printf("%-40s %10s\n", entry.Name, formatBytes(entry.Size))
		}
	}
	fmt.Printf("\n%d entries\n", len(listing.Entries))
}
