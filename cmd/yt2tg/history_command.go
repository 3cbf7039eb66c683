package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarpagad/yt2tg/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent delivery attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			journalStore, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open delivery journal: %w", err)
			}
			defer journalStore.Close()

			entries, err := journalStore.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No delivery attempts recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				reason := entry.FailureReason
				if reason == "" {
					reason = "-"
				}
				rows = append(rows, []string{
					formatTimestamp(entry.CreatedAt),
					entry.VideoID,
					displayTitle(entry.Title),
					string(entry.Outcome),
					reason,
					formatBytes(entry.ArtifactBytes),
					formatElapsed(entry.Duration),
				})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"When", "Video", "Title", "Outcome", "Reason", "Size", "Elapsed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}
