package command

import (
	"errors"
	"fmt"

	"github.com/adamavenir/job-status/internal/core"
	"github.com/adamavenir/job-status/internal/monitor"
	"github.com/adamavenir/job-status/internal/scheduler"
	"github.com/spf13/cobra"
)

// runMonitor is the root command: poll, persist and render until the operator quits.
func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, err := GetContext(cmd)
	if err != nil {
		return writeCommandError(cmd, err)
	}

	interval, _ := cmd.Flags().GetDuration("interval")
	shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

	err = monitor.Run(cmd.Context(), monitor.Options{
		Config:          ctx.Config,
		Source:          scheduler.NewSlurmSource(ctx.Logger),
		Store:           ctx.Store,
		Presenter:       monitor.NewPresenter(cmd.OutOrStdout()),
		Input:           cmd.InOrStdin(),
		Interval:        interval,
		ShutdownTimeout: shutdownTimeout,
		Logger:          ctx.Logger,
	})
	_ = ctx.CloseAfter(err)
	if !errors.Is(err, core.ErrInvalidConfig) {
		fmt.Fprintln(cmd.OutOrStdout(), "\nExiting...")
	}
	if err != nil {
		return writeCommandError(cmd, err)
	}
	return nil
}
