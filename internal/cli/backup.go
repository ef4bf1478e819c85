package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/vigil/internal/wire"
)

// BackupCmd returns the backup command.
func BackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <destination-path>",
		Short: "Copy the database file to a backup location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := wire.Store().CreateBackup(args[0]).Await(cmd.Context())
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}
			color.Green("Backup written to %s", path)
			return nil
		},
	}
}
