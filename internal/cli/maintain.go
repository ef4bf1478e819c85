package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/vigil/internal/wire"
)

// MaintainCmd returns the maintain command.
func MaintainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maintain",
		Short: "Run a maintenance pass: cleanup, cache eviction, compaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := wire.Store().RunMaintenance().Await(cmd.Context())
			if err != nil {
				return fmt.Errorf("maintenance failed: %w", err)
			}
			fmt.Printf("Pursuits deleted: %d\n", report.PursuitsDeleted)
			fmt.Printf("Cache evicted:    %d\n", report.CacheEvicted)
			fmt.Printf("Compacted:        %v\n", report.Compacted)
			for _, e := range report.Errors {
				color.Red("step failed: %v", e)
			}
			return nil
		},
	}
}
