// Package cli contains the cobra command surface. Commands are thin
// translators over the wire singletons; all state lives behind the
// services and the store.
package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/vigil/internal/wire"
)

// ActorCmd returns the actor command group.
func ActorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actor",
		Short: "Inspect and manage tracked actors",
	}
	cmd.AddCommand(actorShowCmd())
	cmd.AddCommand(actorListCmd())
	cmd.AddCommand(actorEnsureCmd())
	cmd.AddCommand(actorPurgeCmd())
	return cmd
}

func actorShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <actor-id>",
		Short: "Show an actor's current enforcement status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := wire.ActorService().Status(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load actor: %w", err)
			}
			if status == nil {
				return fmt.Errorf("actor %s not found", args[0])
			}

			fmt.Printf("%s (%s)\n", status.DisplayName, status.ActorID)
			if status.OnDuty {
				color.Green("  on duty")
			} else {
				fmt.Println("  off duty")
			}
			if status.Wanted {
				color.Red("  wanted: level %d (%s), clears in %s",
					status.AlertLevel, status.AlertReason, status.AlertEndsIn.Round(time.Second))
			} else {
				fmt.Println("  not wanted")
			}
			if status.Pursued {
				color.Yellow("  pursued by %s", status.PursuerID)
			}
			return nil
		},
	}
}

func actorListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tracked actors by display name",
		RunE: func(cmd *cobra.Command, args []string) error {
			actors, err := wire.Store().LoadAllActors().Await(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list actors: %w", err)
			}
			if len(actors) == 0 {
				fmt.Println("No actors tracked yet.")
				return nil
			}
			for _, a := range actors {
				marker := " "
				if a.OnDuty {
					marker = "*"
				}
				fmt.Printf("%s %-24s %s\n", marker, a.DisplayName, a.ActorID)
			}
			return nil
		},
	}
}

func actorEnsureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure <actor-id> <display-name>",
		Short: "Create or refresh an actor's tracking row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wire.ActorService().Ensure(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to ensure actor: %w", err)
			}
			fmt.Printf("Tracking %s (%s)\n", a.DisplayName, a.ActorID)
			return nil
		},
	}
}

func actorPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <actor-id>",
		Short: "Remove an actor and its cached data permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.ActorService().Purge(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to purge actor: %w", err)
			}
			fmt.Printf("Purged %s\n", args[0])
			return nil
		},
	}
}
