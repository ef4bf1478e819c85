package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/vigil/internal/wire"
)

// StatsCmd returns the stats command.
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <actor-id>",
		Short: "Show an actor's recorded performance events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			events, err := wire.Store().LoadStats(args[0], limit).Await(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}
			if len(events) == 0 {
				fmt.Println("No events recorded.")
				return nil
			}
			for _, e := range events {
				at := time.UnixMilli(e.RecordedAt).Format(time.RFC3339)
				fmt.Printf("%s  %-18s %d\n", at, e.StatType, e.StatValue)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum events to show (0 for all)")
	return cmd
}
