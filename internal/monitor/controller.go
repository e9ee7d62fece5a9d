package monitor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// QuitCommand stops the monitor. An empty line is treated the same way.
const QuitCommand = "q"

// Selection is the job id the operator asked to expand. Selecting a job also
// wakes the poll loop so the detail view appears without waiting a full interval.
type Selection struct {
	jobID   atomic.Pointer[string]
	refresh chan struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{refresh: make(chan struct{}, 1)}
}

// Select records jobID and requests an early refresh.
func (s *Selection) Select(jobID string) {
	s.jobID.Store(&jobID)
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Selected returns the selected job id, or "" when none.
func (s *Selection) Selected() string {
	if id := s.jobID.Load(); id != nil {
		return *id
	}
	return ""
}

// Refresh is signalled after each Select.
func (s *Selection) Refresh() <-chan struct{} {
	return s.refresh
}

// Controller reads operator commands line by line.
type Controller struct {
	In        io.Reader
	Selection *Selection
	Logger    *slog.Logger
}

// Run returns when the operator quits, input reaches EOF, or ctx is cancelled.
// The caller treats any return as a shutdown request.
func (c *Controller) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	// The scanner may stay blocked on a terminal read after Run returns; it
	// exits on the next line or when the process ends.
	go func() {
		scanner := bufio.NewScanner(c.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			c.logger().Debug("input closed")
			return nil
		case line := <-lines:
			input := strings.TrimSpace(line)
			if input == "" || input == QuitCommand {
				c.logger().Info("quit requested")
				return nil
			}
			c.logger().Debug("job selected", "job_id", input)
			if c.Selection != nil {
				c.Selection.Select(input)
			}
		}
	}
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
