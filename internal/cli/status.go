package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/vigil/internal/wire"
)

// InitCmd returns the init command. Opening the store creates the data
// directory, the database and the schema, so init only has to touch the
// wire container and report where everything landed.
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the vigil database and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Config()
			wire.Store()
			color.Green("Database ready at %s", cfg.DatabasePath())
			return nil
		},
	}
}

// StatusCmd returns the status command showing store-level counts.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store contents at a glance",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := wire.Store().Statistics().Await(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read statistics: %w", err)
			}
			fmt.Printf("Actors:          %d\n", st.Actors)
			fmt.Printf("Active pursuits: %d\n", st.ActivePursuits)
			fmt.Printf("Cached entries:  %d\n", st.CachedEntries)
			fmt.Printf("Database size:   %d bytes\n", st.SizeBytes)
			return nil
		},
	}
}
