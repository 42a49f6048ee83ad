package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"postpilot/internal/post"
)

func newAddCmd() *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "add <topic> <time>",
		Short: "Schedule a post",
		Long: `Schedule a post about <topic> at <time>.

Accepted time formats (local clock):
  HH:MM              today at that time
  YYYY-MM-DD         that day at 09:00
  "YYYY-MM-DD HH:MM" exact date and time`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := storeService()
			if err != nil {
				return err
			}
			at, err := post.ParseScheduleTime(args[1], time.Now())
			if err != nil {
				return err
			}
			j, err := svc.AddJob(args[0], at, body)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %s about %q for %s (in %s)\n",
				j.ID[:8], j.Topic,
				j.TriggerTime.Format("2006-01-02 15:04"),
				post.FormatRemaining(time.Until(j.TriggerTime)))
			return nil
		},
	}
	cmd.Flags().StringVar(&body, "content", "", "post body to use verbatim (skips generation)")
	return cmd
}
