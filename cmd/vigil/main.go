package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/vigil/internal/cli"
	"github.com/example/vigil/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "vigil",
		Short:   "Vigil - durable enforcement state engine",
		Version: version.String(),
		Long: `Vigil persists enforcement state: duty sessions, alert levels,
pursuits and per-actor performance events, backed by a single SQLite
database that survives restarts.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.ActorCmd())
	rootCmd.AddCommand(cli.DutyCmd())
	rootCmd.AddCommand(cli.AlertCmd())
	rootCmd.AddCommand(cli.PursuitCmd())
	rootCmd.AddCommand(cli.StatsCmd())
	rootCmd.AddCommand(cli.MaintainCmd())
	rootCmd.AddCommand(cli.BackupCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
