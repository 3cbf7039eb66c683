package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute a single poll-and-deliver cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			defer deps.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := deps.daemon.RunOnce(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Pending == 0 {
				fmt.Fprintf(out, "No new items (%d polled)\n", result.Polled)
				return nil
			}
			fmt.Fprintf(out, "Cycle complete: %d delivered, %d failed (%d polled)\n",
				result.Delivered, result.Failed, result.Polled)
			return nil
		},
	}
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the feed continuously until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := ctx.buildPipeline()
			if err != nil {
				return err
			}
			defer deps.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return deps.daemon.Watch(runCtx)
		},
	}
}
