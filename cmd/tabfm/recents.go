package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var recentsCmd = &cobra.Command{
	Use:   "recents",
	Short: "Show recently visited directories",
	RunE:  runRecents,
}

var recentsLimit int

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Manage bookmarked directories",
}

var bookmarkAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Bookmark a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookmarkAdd,
}

var bookmarkRemoveCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Remove a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookmarkRemove,
}

var bookmarkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarks",
	RunE:  runBookmarkList,
}

func init() {
	rootCmd.AddCommand(recentsCmd)
	recentsCmd.Flags().IntVarP(&recentsLimit, "limit", "n", 10,
		"Maximum number of entries to show")

	rootCmd.AddCommand(bookmarkCmd)
	bookmarkCmd.AddCommand(bookmarkAddCmd)
	bookmarkCmd.AddCommand(bookmarkRemoveCmd)
	bookmarkCmd.AddCommand(bookmarkListCmd)
}

func runRecents(cmd *cobra.Command, args []string) error {
	locations, err := appClient.Recents.Recent(recentsLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(locations)
		return nil
	}

	if len(locations) == 0 {
		printInfo("No recent directories")
		return nil
	}
	for _, loc := range locations {
		fmt.Printf("%-50s %4d visits  %s\n",
			loc.Path, loc.VisitCount, loc.LastVisited.Format("2006-01-02 15:04"))
	}
	return nil
}

func runBookmarkAdd(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := appClient.Recents.AddBookmark(path); err != nil {
		return err
	}
	printSuccess("Bookmarked %s", path)
	return nil
}

func runBookmarkRemove(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := appClient.Recents.RemoveBookmark(path); err != nil {
		return err
	}
	printSuccess("Removed bookmark %s", path)
	return nil
}

func runBookmarkList(cmd *cobra.Command, args []string) error {
	bookmarks, err := appClient.Recents.Bookmarks()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(bookmarks)
		return nil
	}

	if len(bookmarks) == 0 {
		printInfo("No bookmarks")
		return nil
	}
	for _, b := range bookmarks {
		fmt.Println(b.Path)
	}
	return nil
}
