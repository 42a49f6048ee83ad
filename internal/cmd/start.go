package cmd

import (
	"github.com/spf13/cobra"

	"postpilot/internal/app"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the scheduler daemon",
		Long:  "Arm the current schedule and keep publishing until interrupted. Edits made by other postpilot invocations are picked up automatically.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(cfgPath)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}
}
