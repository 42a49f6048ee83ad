package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"postpilot/internal/post"
)

func newRescheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule <job-id> <time>",
		Short: "Move a post to a new time",
		Long:  "Move a post to a new future time. Works on finished posts too; they go back to scheduled.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := storeService()
			if err != nil {
				return err
			}
			at, err := post.ParseScheduleTime(args[1], time.Now())
			if err != nil {
				return err
			}
			if err := svc.Reschedule(args[0], at); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rescheduled %s for %s (in %s)\n",
				args[0], at.Format("2006-01-02 15:04"), post.FormatRemaining(time.Until(at)))
			return nil
		},
	}
}
