package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tabfm/tabfm/internal/fsops"
)

var cpCmd = &cobra.Command{
	Use:   "cp <src> <dst>",
	Short: "Copy a file or directory tree",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransfer(false, args[0], args[1])
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <src> <dst>",
	Short: "Move a file or directory tree",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransfer(true, args[0], args[1])
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete a file or directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var rmRecursive bool

func init() {
	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(rmCmd)

	rmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "r", false,
		"Delete directories and their contents")
}

func transferContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		printWarning("\nInterrupted, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

func runTransfer(move bool, src, dst string) error {
	srcPath, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	dstPath, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}

	ctx, cancel := transferContext()
	defer cancel()

	progress := make(chan fsops.Progress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchProgress(progress)
	}()

	start := time.Now()
	err = appClient.Transfer(ctx, move, srcPath, dstPath, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	verb := "Copied"
	if move {
		verb = "Moved"
	}
	if jsonOutput {
		printJSON(map[string]interface{}{
			"success":  true,
			"src":      srcPath,
			"dst":      dstPath,
			"duration": time.Since(start).String(),
		})
		return nil
	}
	printSuccess("%s %s -> %s (%s)", verb, srcPath, dstPath,
		time.Since(start).Round(time.Millisecond))
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	ctx, cancel := transferContext()
	defer cancel()

	progress := make(chan fsops.Progress, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchProgress(progress)
	}()

	result, err := appClient.Delete(ctx, path, rmRecursive, progress)
	close(progress)
	<-done

	removed := 0
	if result != nil {
		removed = len(result.Removed)
	}

	if err != nil {
		if removed > 0 {
			printWarning("Partially deleted: %d entries removed", removed)
		}
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"path":    path,
			"removed": removed,
		})
		return nil
	}
	printSuccess("Deleted %s (%d entries)", path, removed)
	return nil
}

func watchProgress(progress <-chan fsops.Progress) {
	if jsonOutput {
		for range progress {
		}
		return
	}
	for p := range progress {
		if p.BytesTotal > 0 {
			fmt.Fprintf(os.Stderr, "\r%s %s (%s / %s)        ",
				p.Op, filepath.Base(p.CurrentPath),
				formatBytes(p.BytesDone), formatBytes(p.BytesTotal))
		} else {
			fmt.Fprintf(os.Stderr, "\r%s %s (%d items)        ",
				p.Op, filepath.Base(p.CurrentPath), p.ItemsDone)
		}
	}
	fmt.Fprintln(os.Stderr)
}
