package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarpagad/yt2tg/internal/logging"
	"github.com/tarpagad/yt2tg/internal/state"
)

func newStateCommand(ctx *commandContext) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the delivery state",
	}

	stateCmd.AddCommand(newStateShowCommand(ctx))
	stateCmd.AddCommand(newStateResetCommand(ctx))
	return stateCmd
}

func newStateShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the committed delivery state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store := state.NewStore(cfg.Paths.StateFile, logging.NewNop())
			st, found, err := store.Load()
			if err != nil {
				return fmt.Errorf("load delivery state: %w", err)
			}

			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintf(out, "No delivery state at %s; the next run delivers only the newest item\n", store.Path())
				return nil
			}
			fmt.Fprintf(out, "State file: %s\n", store.Path())
			fmt.Fprintf(out, "Last seen id: %s\n", st.LastSeenID)
			fmt.Fprintf(out, "Last seen published: %s\n", formatTimestamp(st.LastSeenPublishedAt))
			return nil
		},
	}
}

func newStateResetCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the delivery state so the next run starts fresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("state reset requires --yes; the next run will treat the newest feed item as undelivered")
			}

			store := state.NewStore(cfg.Paths.StateFile, logging.NewNop())
			if err := store.Reset(); err != nil {
				return fmt.Errorf("reset delivery state: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm the reset")
	return cmd
}
