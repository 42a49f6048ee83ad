package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"postpilot/internal/app"
)

func newPostNowCmd() *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "post-now <topic>",
		Short: "Publish a post immediately",
		Long:  "Generate and publish right away, without touching the schedule.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			if err := a.PostNow(ctx, args[0], body); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted about %q\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&body, "content", "", "post body to use verbatim (skips generation)")
	return cmd
}
