// Package cmd implements the postpilot command line: schedule management
// commands that edit the shared job document, and the start command that
// runs the daemon.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"postpilot/internal/config"
	"postpilot/internal/scheduler"
	"postpilot/internal/store"
	"postpilot/pkg/logx"
)

var cfgPath string

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "postpilot",
		Short:         "Schedule and publish social posts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "./postpilot.yaml", "config file")

	root.AddCommand(
		newAddCmd(),
		newQuickCmd(),
		newListCmd(),
		newStatusCmd(),
		newCancelCmd(),
		newRescheduleCmd(),
		newClearCmd(),
		newPostNowCmd(),
		newStartCmd(),
	)
	return root
}

func Execute(ctx context.Context) error {
	return NewRoot().ExecuteContext(ctx)
}

// storeService builds a store-only scheduler for the management commands.
// They mutate the job document directly; a running daemon picks the edit
// up on its next reconciliation.
func storeService() (*scheduler.Service, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	log := logx.NewConsole(cfg.Log.Level)
	return scheduler.NewStoreOnly(log, store.NewFile(cfg.Store.Path)), cfg, nil
}
