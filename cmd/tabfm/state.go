package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabfm/tabfm/internal/models"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and manage the persisted session",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current session state",
	RunE:  runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the persisted session and its backups",
	RunE:  runStateReset,
}

var stateBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List snapshot backup files, newest first",
	RunE:  runStateBackups,
}

var modeCmd = &cobra.Command{
	Use:       "mode <single|split>",
	Short:     "Switch the pane layout mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"single", "split"},
	RunE:      runMode,
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
	stateCmd.AddCommand(stateBackupsCmd)

	rootCmd.AddCommand(modeCmd)
}

func runMode(cmd *cobra.Command, args []string) error {
	var mode models.UIMode
	switch args[0] {
	case "single":
		mode = models.ModeSinglePane
	case "split":
		mode = models.ModeSplitPane
	default:
		return fmt.Errorf("unknown mode %q", args[0])
	}

	state, err := appClient.Store.SetUIMode(mode)
	if err != nil {
		return err
	}
	printSuccess("Mode set to %s", state.Mode)
	return nil
}

func runStateShow(cmd *cobra.Command, args []string) error {
	state := appClient.Store.Snapshot()

	if jsonOutput {
		printJSON(state)
		return nil
	}

	printTabs(state)
	fmt.Printf("Mode:   %s\n", state.Mode)
	fmt.Printf("Window: %dx%d at (%d,%d)\n",
		state.Window.Width, state.Window.Height, state.Window.X, state.Window.Y)
	return nil
}

func runStateReset(cmd *cobra.Command, args []string) error {
	if err := appClient.Persist.Reset(); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"reset": true})
		return nil
	}
	printSuccess("Session state cleared")
	return nil
}

func runStateBackups(cmd *cobra.Command, args []string) error {
	backups := appClient.Persist.Backups()

	if jsonOutput {
		printJSON(map[string]interface{}{"backups": backups})
		return nil
	}

	if len(backups) == 0 {
		printInfo("No backups")
		return nil
	}
	for i, path := range backups {
		fmt.Printf("%d. %s\n", i+1, path)
	}
	return nil
}
