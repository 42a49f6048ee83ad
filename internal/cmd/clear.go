package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove finished posts from the schedule",
		Long:  "Remove completed, failed, expired and cancelled posts. Pending posts are kept.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := storeService()
			if err != nil {
				return err
			}
			n, err := svc.Clear()
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to clear.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d finished post(s)\n", n)
			return nil
		},
	}
}
