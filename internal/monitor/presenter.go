package monitor

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/adamavenir/job-status/internal/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

const (
	// Prompt ends every frame so the cursor waits after it for operator input.
	Prompt = "Enter JOBID to expand for more info or 'q' to quit [q]: "

	noActiveJobsNotice = "No active jobs. Displaying finished jobs:"
	liveHint           = "Type 'q' to quit or enter a JOBID to see more details."

	maxJobNameWidth = 40
)

// Columns are the table headers, in Row order.
var Columns = []string{
	"JOBID",
	"JOBNAME",
	"JOB STATUS",
	"RUN TIME",
	"NODES",
	"CPUS",
	"LOG.ERR SIZE (KB)",
	"LOG.OUT SIZE (KB)",
}

// Frame is everything drawn in one refresh.
type Frame struct {
	Live       []types.JobSnapshot
	History    []types.JobSnapshot
	FetchErr   error
	StoreErr   error
	Detail     *Detail
	RenderedAt time.Time
}

// Detail is the stored record for the job the operator asked about.
// Snapshot is nil when the job has never been observed.
type Detail struct {
	JobID    string
	Snapshot *types.JobSnapshot
	Err      error
}

// Rows returns the snapshots the table is built from: the live listing when
// non-empty, otherwise the history.
func (f Frame) Rows() []types.JobSnapshot {
	if len(f.Live) > 0 {
		return f.Live
	}
	return f.History
}

// Renderer draws frames.
type Renderer interface {
	Render(frame Frame) error
}

// Presenter renders full-screen job tables to a writer.
type Presenter struct {
	mu       sync.Mutex
	out      io.Writer
	clear    bool
	renderer *lipgloss.Renderer

	headerStyle lipgloss.Style
	cellStyle   lipgloss.Style
	noticeStyle lipgloss.Style
	warnStyle   lipgloss.Style
	hintStyle   lipgloss.Style
	metaStyle   lipgloss.Style
	detailStyle lipgloss.Style
}

// NewPresenter returns a presenter writing to w. The screen is cleared before
// each frame only when w is a terminal.
func NewPresenter(w io.Writer) *Presenter {
	clear := false
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		clear = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	r := lipgloss.NewRenderer(w)
	return &Presenter{
		out:         w,
		clear:       clear,
		renderer:    r,
		headerStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")).Padding(0, 1),
		cellStyle:   r.NewStyle().Padding(0, 1),
		noticeStyle: r.NewStyle().Foreground(lipgloss.Color("3")),
		warnStyle:   r.NewStyle().Foreground(lipgloss.Color("203")),
		hintStyle:   r.NewStyle().Foreground(lipgloss.Color("2")),
		metaStyle:   r.NewStyle().Foreground(lipgloss.Color("241")),
		detailStyle: r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

// Render writes frame as a single full refresh.
func (p *Presenter) Render(frame Frame) error {
	var b strings.Builder
	if p.clear {
		b.WriteString(ansi.CursorHomePosition)
		b.WriteString(ansi.EraseEntireScreen)
	}

	live := len(frame.Live) > 0
	if !live {
		b.WriteString(p.noticeStyle.Render(noActiveJobsNotice))
		b.WriteString("\n\n")
	}
	if frame.FetchErr != nil {
		b.WriteString(p.warnStyle.Render(fmt.Sprintf("scheduler query failed: %v", frame.FetchErr)))
		b.WriteString("\n")
	}
	if frame.StoreErr != nil {
		b.WriteString(p.warnStyle.Render(fmt.Sprintf("warning: history not saved (%v); finished-job view may be stale", frame.StoreErr)))
		b.WriteString("\n")
	}

	b.WriteString(p.table(frame.Rows()))
	b.WriteString("\n")

	if frame.Detail != nil {
		b.WriteString("\n")
		b.WriteString(p.detail(*frame.Detail, frame.RenderedAt))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if !frame.RenderedAt.IsZero() {
		b.WriteString(p.metaStyle.Render("Last updated " + frame.RenderedAt.Format("2006-01-02 15:04:05")))
		b.WriteString("\n")
	}
	if live {
		b.WriteString(p.hintStyle.Render(liveHint))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(Prompt)

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *Presenter) table(snaps []types.JobSnapshot) string {
	rows := make([][]string, 0, len(snaps))
	for _, snap := range snaps {
		row := snap.Row()
		row[1] = ansi.Truncate(row[1], maxJobNameWidth, "…")
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.metaStyle).
		Headers(Columns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.headerStyle
			}
			return p.cellStyle
		})
	return t.String()
}

func (p *Presenter) detail(d Detail, now time.Time) string {
	var lines []string
	switch {
	case d.Err != nil:
		lines = append(lines, fmt.Sprintf("Job %s: lookup failed: %v", d.JobID, d.Err))
	case d.Snapshot == nil:
		lines = append(lines, fmt.Sprintf("No record for job %s", d.JobID))
	default:
		s := d.Snapshot
		lines = append(lines,
			fmt.Sprintf("Job %s (%s)", s.JobID, s.JobName),
			fmt.Sprintf("Status:   %s", s.Status),
			fmt.Sprintf("Run time: %s", s.RunTime),
			fmt.Sprintf("Nodes:    %s   CPUs: %s", s.Nodes, s.CPUs),
			fmt.Sprintf("log.err:  %s", s.LogErrSize),
			fmt.Sprintf("log.out:  %s", s.LogOutSize),
		)
		if s.CapturedAt > 0 {
			captured := time.UnixMilli(s.CapturedAt)
			if now.IsZero() {
				now = time.Now()
			}
			lines = append(lines, fmt.Sprintf("Captured: %s (%s)",
				captured.Format("2006-01-02 15:04:05"),
				humanize.RelTime(captured, now, "ago", "from now")))
		}
	}
	return p.detailStyle.Render(strings.Join(lines, "\n"))
}
