package monitor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/adamavenir/job-status/internal/core"
	"github.com/adamavenir/job-status/internal/scheduler"
	"github.com/adamavenir/job-status/internal/types"
)

// DefaultInterval is the pause between poll ticks.
const DefaultInterval = 5 * time.Second

// History is the persisted job cache used by the poll loop.
type History interface {
	Upsert(ctx context.Context, snap types.JobSnapshot) error
	AllOrderedByRecency(ctx context.Context) ([]types.JobSnapshot, error)
	Get(ctx context.Context, jobID string) (*types.JobSnapshot, error)
}

// LoopState is the lifecycle state of a PollLoop.
type LoopState int32

const (
	LoopStopped LoopState = iota
	LoopRunning
)

func (s LoopState) String() string {
	if s == LoopRunning {
		return "running"
	}
	return "stopped"
}

// PollLoop repeatedly fetches live jobs, augments them with log sizes,
// persists them and renders a frame.
type PollLoop struct {
	Source    scheduler.JobSource
	Store     History
	Presenter Renderer
	Config    core.Config
	Interval  time.Duration
	Selection *Selection
	Logger    *slog.Logger

	// Now stamps RenderedAt on each frame.
	Now func() time.Time

	state atomic.Int32
}

// State reports whether the loop is running.
func (p *PollLoop) State() LoopState {
	return LoopState(p.state.Load())
}

// Run ticks immediately and then once per Interval until ctx is cancelled.
// A selection made by the controller triggers an early tick.
func (p *PollLoop) Run(ctx context.Context) error {
	p.state.Store(int32(LoopRunning))
	defer p.state.Store(int32(LoopStopped))

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	var refresh <-chan struct{}
	if p.Selection != nil {
		refresh = p.Selection.Refresh()
	}

	for {
		p.Tick(ctx)
		if ctx.Err() != nil {
			return nil
		}

		wait := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil
		case <-wait.C:
		case <-refresh:
			wait.Stop()
		}
	}
}

// Tick runs one fetch, persist and render cycle and returns the rendered frame.
// Nothing is rendered if ctx is cancelled part way through.
func (p *PollLoop) Tick(ctx context.Context) Frame {
	logger := p.logger()
	frame := Frame{RenderedAt: p.now()}

	jobs, err := p.Source.ListLiveJobs(ctx, p.Config.Username)
	if err != nil {
		if ctx.Err() != nil {
			return frame
		}
		logger.Warn("scheduler query failed", "operator", p.Config.Username, "error", err)
		frame.FetchErr = err
	}

	for _, job := range jobs {
		dir, err := p.Source.ResolveWorkingDirectory(ctx, job.JobID)
		if err != nil {
			if ctx.Err() != nil {
				return frame
			}
			logger.Warn("resolve working directory failed", "job_id", job.JobID, "error", err)
			dir = ""
		}
		errSize, outSize := scheduler.ProbeLogs(dir, p.Config.LogErrFile, p.Config.LogOutFile)
		snap := job.Snapshot(errSize, outSize)

		if err := p.Store.Upsert(ctx, snap); err != nil {
			if ctx.Err() != nil {
				return frame
			}
			logger.Error("history write failed", "job_id", job.JobID, "error", err)
			if frame.StoreErr == nil {
				frame.StoreErr = err
			}
		}
		frame.Live = append(frame.Live, snap)
	}

	if len(frame.Live) == 0 {
		history, err := p.Store.AllOrderedByRecency(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return frame
			}
			logger.Error("history read failed", "error", err)
			if frame.StoreErr == nil {
				frame.StoreErr = err
			}
		}
		frame.History = history
	}

	if p.Selection != nil {
		if jobID := p.Selection.Selected(); jobID != "" {
			snap, err := p.Store.Get(ctx, jobID)
			frame.Detail = &Detail{JobID: jobID, Snapshot: snap, Err: err}
		}
	}

	if ctx.Err() != nil {
		return frame
	}
	logger.Debug("tick", "live", len(frame.Live), "history", len(frame.History))
	if err := p.Presenter.Render(frame); err != nil {
		logger.Error("render failed", "error", err)
	}
	return frame
}

func (p *PollLoop) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *PollLoop) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
