package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"postpilot/internal/post"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show a one-screen schedule summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cfg, err := storeService()
			if err != nil {
				return err
			}
			r, err := svc.Report()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store:     %s\n", cfg.Store.Path)
			fmt.Fprintf(out, "Total:     %d\n", r.Total())
			fmt.Fprintf(out, "Upcoming:  %d\n", len(r.Upcoming))
			fmt.Fprintf(out, "Completed: %d\n", len(r.Completed))
			fmt.Fprintf(out, "Failed:    %d\n", len(r.Failed))
			fmt.Fprintf(out, "Expired:   %d\n", len(r.Expired))
			fmt.Fprintf(out, "Cancelled: %d\n", len(r.Cancelled))
			if len(r.Upcoming) > 0 {
				next := r.Upcoming[0]
				fmt.Fprintf(out, "Next:      %q at %s (in %s)\n",
					next.Topic,
					next.TriggerTime.Format("2006-01-02 15:04"),
					post.FormatRemaining(next.TriggerTime.Sub(r.Now)))
			}
			return nil
		},
	}
}
