// Package monitor runs the job table: a background poll loop and a
// foreground operator prompt sharing one cancellation context.
package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/adamavenir/job-status/internal/core"
	"github.com/adamavenir/job-status/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds how long Run waits for the poll loop to
// finish its current tick after shutdown is requested.
const DefaultShutdownTimeout = 10 * time.Second

// ErrShutdownTimeout is returned when the poll loop does not stop in time.
var ErrShutdownTimeout = errors.New("poll loop did not stop before shutdown timeout")

// Options wires the monitor's collaborators.
type Options struct {
	Config          core.Config
	Source          scheduler.JobSource
	Store           History
	Presenter       Renderer
	Input           io.Reader
	Interval        time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Run starts the poll loop in the background and reads operator input until
// the operator quits or ctx is cancelled, then waits (bounded) for the poll
// loop to exit. The store is not closed; the caller owns it.
func Run(ctx context.Context, opts Options) error {
	if err := opts.Config.Validate(); err != nil {
		return err
	}
	if opts.Source == nil || opts.Store == nil {
		return errors.New("monitor: source and store are required")
	}
	if opts.Presenter == nil {
		opts.Presenter = NewPresenter(os.Stdout)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	selection := NewSelection()
	loop := &PollLoop{
		Source:    opts.Source,
		Store:     opts.Store,
		Presenter: opts.Presenter,
		Config:    opts.Config,
		Interval:  opts.Interval,
		Selection: selection,
		Logger:    logger,
	}
	controller := &Controller{
		In:        opts.Input,
		Selection: selection,
		Logger:    logger,
	}

	logger.Info("monitor started",
		"operator", opts.Config.Username,
		"log_err_file", opts.Config.LogErrFile,
		"log_out_file", opts.Config.LogOutFile)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return loop.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return controller.Run(gctx)
	})

	<-runCtx.Done()
	if ctx.Err() != nil {
		logger.Info("interrupt received, stopping")
	}

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	timer := time.NewTimer(opts.ShutdownTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		logger.Info("monitor stopped", "error", err)
		return err
	case <-timer.C:
		logger.Error("poll loop still running at shutdown timeout", "timeout", opts.ShutdownTimeout)
		return ErrShutdownTimeout
	}
}
