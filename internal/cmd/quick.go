package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"postpilot/internal/post"
)

func newQuickCmd() *cobra.Command {
	var when, body string
	cmd := &cobra.Command{
		Use:   "quick <topic>",
		Short: "Schedule a post with a shortcut time",
		Long:  "Shortcuts for --when: now (one minute from now), in-1h, in-2h, tomorrow (09:00), next-week (09:00).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := storeService()
			if err != nil {
				return err
			}
			at, err := post.QuickTime(when, time.Now())
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
	cmd.Flags().StringVar(&when, "when", "now", "shortcut time: now, in-1h, in-2h, tomorrow, next-week")
	cmd.Flags().StringVar(&body, "content", "", "post body to use verbatim (skips generation)")
	return cmd
}
