package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/vigil/internal/wire"
)

// DutyCmd returns the duty command group.
func DutyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duty",
		Short: "Start and end duty sessions",
	}
	cmd.AddCommand(dutyOnCmd())
	cmd.AddCommand(dutyOffCmd())
	return cmd
}

func dutyOnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "on <actor-id>",
		Short: "Put an actor on duty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := wire.ActorService()
			if err := svc.BeginDuty(cmd.Context(), args[0]); err != nil {
				return err
			}
			// The transition window guards movement in the live
			// environment; the CLI settles it after the delay.
			time.Sleep(wire.Config().TransitionDelay)
			if err := svc.CompleteTransition(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("%s is now on duty\n", args[0])
			return nil
		},
	}
}

func dutyOffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "off <actor-id>",
		Short: "Take an actor off duty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := wire.ActorService()
			if err := svc.EndDuty(cmd.Context(), args[0]); err != nil {
				return err
			}
			time.Sleep(wire.Config().TransitionDelay)
			if err := svc.CompleteTransition(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("%s is now off duty\n", args[0])
			return nil
		},
	}
}
