package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all posts grouped by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := storeService()
			if err != nil {
				return err
			}
			r, err := svc.Report()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), r.Render())
			return nil
		},
	}
}
