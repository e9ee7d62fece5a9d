package command

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/adamavenir/job-status/internal/core"
	"github.com/adamavenir/job-status/internal/db"
	"github.com/adamavenir/job-status/internal/monitor"
	"github.com/spf13/cobra"
)

// CommandContext provides shared command resources.
type CommandContext struct {
	Config     core.Config
	ConfigPath string
	Store      *db.HistoryStore
	Logger     *slog.Logger
	JSONMode   bool

	logCloser io.Closer
}

// GetContext resolves configuration, opens the diagnostic log and the history store.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	config, configPath, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	logPath, _ := cmd.Flags().GetString("log-file")
	debug, _ := cmd.Flags().GetBool("debug")
	logger, logCloser, err := core.OpenLogger(logPath, debug)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	dbPath, _ := cmd.Flags().GetString("db")
	store, err := db.OpenHistoryStore(dbPath)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("open history %s: %w", dbPath, err)
	}

	jsonMode, _ := cmd.Flags().GetBool("json")
	return &CommandContext{
		Config:     config,
		ConfigPath: configPath,
		Store:      store,
		Logger:     logger,
		JSONMode:   jsonMode,
		logCloser:  logCloser,
	}, nil
}

// Close releases the store and the log file.
func (c *CommandContext) Close() error {
	err := c.Store.Close()
	if c.logCloser != nil {
		if closeErr := c.logCloser.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

// CloseAfter releases resources once a monitor run has returned runErr.
// After a shutdown timeout the poll loop may still be writing, so the store
// and log stay open until the process exits.
func (c *CommandContext) CloseAfter(runErr error) error {
	if errors.Is(runErr, monitor.ErrShutdownTimeout) {
		c.Logger.Warn("leaving history store and log open for the abandoned poll loop")
		return nil
	}
	return c.Close()
}

// resolveConfig loads the config file and persists any override flags.
func resolveConfig(cmd *cobra.Command) (core.Config, string, error) {
	path, err := core.ConfigPath()
	if err != nil {
		return core.Config{}, "", err
	}
	config, err := core.LoadConfig(path)
	if err != nil {
		return core.Config{}, "", err
	}

	var overrides core.Overrides
	overrides.Username, _ = cmd.Flags().GetString("username")
	overrides.LogOutFile, _ = cmd.Flags().GetString("log-out-file")
	overrides.LogErrFile, _ = cmd.Flags().GetString("log-err-file")

	if overrides.Apply(&config) {
		out := cmd.ErrOrStderr()
		fmt.Fprintln(out, "Updating configuration file...")
		if err := core.WriteConfig(path, config); err != nil {
			return core.Config{}, "", fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintln(out, "Configuration file updated successfully!")
	}
	return config, path, nil
}
