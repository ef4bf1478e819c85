package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/vigil/internal/core/pursuit"
	"github.com/example/vigil/internal/wire"
)

// PursuitCmd returns the pursuit command group.
func PursuitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pursuit",
		Short: "Start, end and list pursuits",
	}
	cmd.AddCommand(pursuitStartCmd())
	cmd.AddCommand(pursuitEndCmd())
	cmd.AddCommand(pursuitListCmd())
	cmd.AddCommand(pursuitExpireCmd())
	return cmd
}

func pursuitStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <enforcer-id> <target-id>",
		Short: "Open a pursuit of a target by an enforcer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := wire.PursuitService().Start(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			color.Yellow("Pursuit %s: %s is pursuing %s", rec.PursuitID, rec.EnforcerID, rec.TargetID)
			return nil
		},
	}
}

func pursuitEndCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "end <pursuit-id>",
		Short: "End an active pursuit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")
			rec, err := wire.PursuitService().End(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			fmt.Printf("Pursuit %s ended (%s)\n", rec.PursuitID, rec.EndReason)
			return nil
		},
	}
	cmd.Flags().String("reason", pursuit.ReasonAbandoned, "Why the pursuit ended (caught, escaped, expired, abandoned, logout)")
	return cmd
}

func pursuitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active pursuits",
		RunE: func(cmd *cobra.Command, args []string) error {
			active, err := wire.PursuitService().Active(cmd.Context())
			if err != nil {
				return err
			}
			if len(active) == 0 {
				fmt.Println("No active pursuits.")
				return nil
			}
			now := wire.Store().Now()
			for _, rec := range active {
				left := time.Duration(rec.Remaining(now)) * time.Millisecond
				fmt.Printf("%s  %s -> %s  %s left\n",
					rec.PursuitID, rec.EnforcerID, rec.TargetID, left.Round(time.Second))
			}
			return nil
		},
	}
}

func pursuitExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "End pursuits whose duration budget has elapsed",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := wire.PursuitService().ExpireOverdue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Expired %d pursuit(s)\n", n)
			return nil
		},
	}
}
