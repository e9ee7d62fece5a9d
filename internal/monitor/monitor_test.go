package monitor

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/adamavenir/job-status/internal/core"
	"github.com/adamavenir/job-status/internal/types"
)

func runMonitor(t *testing.T, ctx context.Context, opts Options) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, opts)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not return")
		return nil
	}
}

func writeInput(t *testing.T, w io.Writer, line string) {
	t.Helper()
	if _, err := io.WriteString(w, line); err != nil {
		t.Fatalf("write input: %v", err)
	}
}

func TestRun_QuitStopsPollLoop(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	source := &fakeSource{jobs: []types.LiveJob{{JobID: "101", JobName: "sim", Status: "RUNNING"}}}
	store := openTestStore(t)
	out := &syncBuffer{}

	done := runMonitor(t, context.Background(), Options{
		Config:    testConfig(),
		Source:    source,
		Store:     store,
		Presenter: NewPresenter(out),
		Input:     r,
		Interval:  5 * time.Millisecond,
		Logger:    discardLogger(),
	})

	waitFor(t, "first frame", func() bool { return strings.Contains(out.String(), "sim") })
	writeInput(t, w, "q\n")

	if err := waitDone(t, done); err != nil {
		t.Fatalf("run: %v", err)
	}

	calls := source.callCount()
	time.Sleep(20 * time.Millisecond)
	if got := source.callCount(); got != calls {
		t.Fatalf("expected no ticks after shutdown, calls went %d -> %d", calls, got)
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 stored job, got %d", count)
	}
}

func TestRun_SelectionShowsDetail(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	source := &fakeSource{jobs: []types.LiveJob{{JobID: "101", JobName: "sim", Status: "RUNNING"}}}
	out := &syncBuffer{}

	done := runMonitor(t, context.Background(), Options{
		Config:    testConfig(),
		Source:    source,
		Store:     openTestStore(t),
		Presenter: NewPresenter(out),
		Input:     r,
		Interval:  time.Hour,
		Logger:    discardLogger(),
	})

	waitFor(t, "first tick", func() bool { return source.callCount() == 1 })
	writeInput(t, w, "101\n")
	waitFor(t, "detail panel", func() bool { return strings.Contains(out.String(), "Job 101 (sim)") })

	writeInput(t, w, "q\n")
	if err := waitDone(t, done); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRun_InterruptMidTickIsClean(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	source := &fakeSource{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	renderer := &recordingRenderer{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runMonitor(t, ctx, Options{
		Config:    testConfig(),
		Source:    source,
		Store:     openTestStore(t),
		Presenter: renderer,
		Input:     r,
		Logger:    discardLogger(),
	})

	select {
	case <-source.entered:
	case <-time.After(time.Second):
		t.Fatal("tick never started")
	}
	cancel()

	if err := waitDone(t, done); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}
	if n := renderer.count(); n != 0 {
		t.Fatalf("expected interrupted tick not to render, got %d frames", n)
	}
}

func TestRun_ShutdownTimeout(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	release := make(chan struct{})
	defer close(release)
	source := &fakeSource{block: release, ignoreCtx: true, entered: make(chan struct{}, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runMonitor(t, ctx, Options{
		Config:          testConfig(),
		Source:          source,
		Store:           openTestStore(t),
		Presenter:       &recordingRenderer{},
		Input:           r,
		ShutdownTimeout: 20 * time.Millisecond,
		Logger:          discardLogger(),
	})

	<-source.entered
	cancel()
	if err := waitDone(t, done); !errors.Is(err, ErrShutdownTimeout) {
		t.Fatalf("expected ErrShutdownTimeout, got %v", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	err := Run(context.Background(), Options{
		Config: core.Config{LogOutFile: "o", LogErrFile: "e"},
		Source: &fakeSource{},
		Store:  openTestStore(t),
	})
	if err == nil || !strings.Contains(err.Error(), "username is not set") {
		t.Fatalf("expected username error, got %v", err)
	}
}

func TestRun_RequiresSourceAndStore(t *testing.T) {
	if err := Run(context.Background(), Options{Config: testConfig()}); err == nil {
		t.Fatal("expected error without source and store")
	}
}
