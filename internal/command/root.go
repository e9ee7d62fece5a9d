package command

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/adamavenir/job-status/internal/core"
	"github.com/adamavenir/job-status/internal/db"
	"github.com/adamavenir/job-status/internal/monitor"
	"github.com/spf13/cobra"
)

const AppName = core.AppName

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   AppName,
		Short: "job-status - live table of your Slurm jobs and their log sizes",
		Long: "job-status polls squeue for your jobs, records the size of each job's stdout/stderr logs, " +
			"and keeps the last known state of every job in a local history database.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runMonitor,
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.SetIn(os.Stdin)

	cmd.PersistentFlags().String("username", "", "user whose jobs are monitored (saved to config)")
	cmd.PersistentFlags().String("log-out-file", "", "stdout log file name in each job's WorkDir (saved to config)")
	cmd.PersistentFlags().String("log-err-file", "", "stderr log file name in each job's WorkDir (saved to config)")
	cmd.PersistentFlags().String("db", db.DefaultDBFile, "history database path")
	cmd.PersistentFlags().String("log-file", core.DefaultLogFile, "diagnostic log path")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")

	cmd.Flags().Duration("interval", monitor.DefaultInterval, "time between scheduler polls")
	cmd.Flags().Duration("shutdown-timeout", monitor.DefaultShutdownTimeout, "how long to wait for the current poll to finish on exit")

	cmd.AddCommand(
		NewHistoryCmd(),
		NewConfigCmd(),
	)

	return cmd
}

// Execute runs the root command with a context cancelled by SIGINT or SIGTERM.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return NewRootCmd(Version).ExecuteContext(ctx)
}
