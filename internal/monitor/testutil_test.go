package monitor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/adamavenir/job-status/internal/core"
	"github.com/adamavenir/job-status/internal/db"
	"github.com/adamavenir/job-status/internal/types"
)

type fakeSource struct {
	mu      sync.Mutex
	jobs    []types.LiveJob
	dirs    map[string]string
	listErr error
	calls   int

	// block, when set, makes ListLiveJobs wait for it (or ctx) before returning.
	block     chan struct{}
	ignoreCtx bool
	entered   chan struct{}
}

func (f *fakeSource) ListLiveJobs(ctx context.Context, operator string) ([]types.LiveJob, error) {
	f.mu.Lock()
	f.calls++
	jobs, err, block := f.jobs, f.listErr, f.block
	entered := f.entered
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if block != nil {
		if f.ignoreCtx {
			<-block
		} else {
			select {
			case <-block:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return jobs, err
}

func (f *fakeSource) ResolveWorkingDirectory(ctx context.Context, jobID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirs[jobID], nil
}

func (f *fakeSource) setJobs(jobs []types.LiveJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = jobs
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type recordingRenderer struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *recordingRenderer) Render(frame Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	return nil
}

func (r *recordingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// failingHistory wraps a store and fails every upsert.
type failingHistory struct {
	History
}

var errDiskFull = errors.New("disk I/O error")

func (f failingHistory) Upsert(ctx context.Context, snap types.JobSnapshot) error {
	return errDiskFull
}

func openTestStore(t *testing.T) *db.HistoryStore {
	t.Helper()
	store, err := db.OpenHistoryStore(filepath.Join(t.TempDir(), db.DefaultDBFile))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func testConfig() core.Config {
	return core.Config{Username: "alice", LogOutFile: "log.out", LogErrFile: "log.err"}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBufferLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, nil))
}

// waitFor polls cond until it holds or a second has passed.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
