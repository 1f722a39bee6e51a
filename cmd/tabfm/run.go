package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the session in the foreground",
	Long: `Run keeps the session alive: snapshots are saved periodically, recent
directories are tracked, and tabs refresh when their directory changes
on disk. Stops on SIGINT or SIGTERM, saving a final snapshot.`,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	printInfo("Session running, Ctrl-C to stop")
	if err := appClient.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
