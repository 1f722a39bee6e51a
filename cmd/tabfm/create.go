package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var touchCmd = &cobra.Command{
	Use:   "touch <path>",
	Short: "Create an empty file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		if err := appClient.FS.CreateFile(context.Background(), path); err != nil {
			return err
		}
		printSuccess("Created %s", path)
		return nil
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		if err := appClient.FS.CreateFolder(context.Background(), path); err != nil {
			return err
		}
		printSuccess("Created %s", path)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename an entry; refuses to clobber an existing target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldPath, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		newPath, err := filepath.Abs(args[1])
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		if err := appClient.FS.Rename(context.Background(), oldPath, newPath); err != nil {
			return err
		}
		printSuccess("Renamed %s -> %s", oldPath, newPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(touchCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(renameCmd)
}
