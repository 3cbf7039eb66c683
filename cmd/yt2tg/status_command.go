package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tarpagad/yt2tg/internal/journal"
	"github.com/tarpagad/yt2tg/internal/logging"
	"github.com/tarpagad/yt2tg/internal/state"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show delivery state and journal summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stateStore := state.NewStore(cfg.Paths.StateFile, logging.NewNop())
			st, hasState, err := stateStore.Load()
			if err != nil {
				return fmt.Errorf("load delivery state: %w", err)
			}

			rows := [][]string{
				{"Channel", cfg.YouTube.ChannelID},
				{"Feed URL", cfg.FeedURL()},
				{"State file", cfg.Paths.StateFile},
			}
			if hasState {
				rows = append(rows,
					[]string{"Last seen id", st.LastSeenID},
					[]string{"Last seen published", formatTimestamp(st.LastSeenPublishedAt)},
				)
			} else {
				rows = append(rows, []string{"Last seen", "never (first run pending)"})
			}

			journalStore, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open delivery journal: %w", err)
			}
			defer journalStore.Close()

			summary, err := journalStore.Summary(cmd.Context())
			if err != nil {
				return fmt.Errorf("summarize journal: %w", err)
			}
			rows = append(rows,
				[]string{"Attempts logged", strconv.Itoa(summary.Total)},
				[]string{"Delivered", strconv.Itoa(summary.Delivered)},
				[]string{"Fetch failures", strconv.Itoa(summary.FetchFailed)},
				[]string{"Delivery failures", strconv.Itoa(summary.DeliveryFailed)},
			)

			if last, found, err := journalStore.LastDelivered(cmd.Context()); err == nil && found {
				rows = append(rows,
					[]string{"Last delivery", formatTimestamp(last.CreatedAt)},
					[]string{"Last delivered title", displayTitle(last.Title)},
				)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Field", "Value"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}
