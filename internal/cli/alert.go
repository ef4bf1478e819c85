package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/vigil/internal/wire"
)

// AlertCmd returns the alert command group.
func AlertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Raise and clear actor alert levels",
	}
	cmd.AddCommand(alertRaiseCmd())
	cmd.AddCommand(alertClearCmd())
	return cmd
}

func alertRaiseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raise <actor-id>",
		Short: "Escalate an actor's alert level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			levels, _ := cmd.Flags().GetInt("levels")
			penalty, _ := cmd.Flags().GetDuration("penalty")
			reason, _ := cmd.Flags().GetString("reason")

			a, err := wire.ActorService().RaiseAlert(cmd.Context(), args[0], levels, penalty, reason)
			if err != nil {
				return err
			}
			color.Red("%s is now wanted at level %d (%s)", a.DisplayName, a.AlertLevel, a.AlertReason)
			return nil
		},
	}
	cmd.Flags().Int("levels", 1, "Levels to add")
	cmd.Flags().Duration("penalty", 5*time.Minute, "How long the escalation lasts")
	cmd.Flags().String("reason", "violation", "Reason recorded on the alert")
	return cmd
}

func alertClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <actor-id>",
		Short: "Clear an actor's alert (apprehension)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.ActorService().ClearAlert(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Alert cleared for %s\n", args[0])
			return nil
		},
	}
}
