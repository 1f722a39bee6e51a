package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tabfm/tabfm/internal/models"
)

var tabCmd = &cobra.Command{
	Use:   "tab",
	Short: "Manage session tabs",
}

var tabNewCmd = &cobra.Command{
	Use:   "new <path>",
	Short: "Open a new tab at the given directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runTabNew,
}

var tabCloseCmd = &cobra.Command{
	Use:   "close <index>",
	Short: "Close a tab by index",
	Args:  cobra.ExactArgs(1),
	RunE:  runTabClose,
}

var tabSwitchCmd = &cobra.Command{
	Use:   "switch <index>",
	Short: "Activate a tab by index",
	Args:  cobra.ExactArgs(1),
	RunE:  runTabSwitch,
}

var backCmd = &cobra.Command{
	Use:   "back",
	Short: "Navigate the active tab to the previous directory",
	RunE:  runBack,
}

var forwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Navigate the active tab forward again",
	RunE:  runForward,
}

func init() {
	rootCmd.AddCommand(tabCmd)
	tabCmd.AddCommand(tabNewCmd)
	tabCmd.AddCommand(tabCloseCmd)
	tabCmd.AddCommand(tabSwitchCmd)

	rootCmd.AddCommand(backCmd)
	rootCmd.AddCommand(forwardCmd)
}

func tabAtIndex(arg string) (*models.Tab, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid tab index %q", arg)
	}
	state := appClient.Store.Snapshot()
	if idx < 0 || idx >= len(state.Tabs) {
		return nil, models.ErrTabNotFound
	}
	tab := state.Tabs[idx]
	return &tab, nil
}

func runTabNew(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	state, err := appClient.OpenTab(context.Background(), path)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(state)
		return nil
	}
	printTabs(state)
	return nil
}

func runTabClose(cmd *cobra.Command, args []string) error {
	tab, err := tabAtIndex(args[0])
	if err != nil {
		return err
	}

	state, err := appClient.Store.CloseTab(tab.ID)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(state)
		return nil
	}
	printTabs(state)
	return nil
}

func runTabSwitch(cmd *cobra.Command, args []string) error {
	tab, err := tabAtIndex(args[0])
	if err != nil {
		return err
	}

	state, err := appClient.Store.ActivateTab(tab.ID)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(state)
		return nil
	}
	printTabs(state)
	return nil
}

func runBack(cmd *cobra.Command, args []string) error {
	tab := appClient.Store.Snapshot().ActiveTab()
	if tab == nil {
		return models.ErrTabNotFound
	}

	state, err := appClient.Back(context.Background(), tab.ID)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(state)
		return nil
	}
	printTabs(state)
	return nil
}

func runForward(cmd *cobra.Command, args []string) error {
	tab := appClient.Store.Snapshot().ActiveTab()
	if tab == nil {
		return models.ErrTabNotFound
	}

	state, err := appClient.Forward(context.Background(), tab.ID)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(state)
		return nil
	}
	printTabs(state)
	return nil
}
