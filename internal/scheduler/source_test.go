package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	stdout map[string]string
	stderr string
	err    error
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.err != nil {
		return nil, []byte(f.stderr), f.err
	}
	return []byte(f.stdout[name]), nil, nil
}

func newTestSource(r *fakeRunner) *SlurmSource {
	return &SlurmSource{
		Squeue:   "squeue",
		Scontrol: "scontrol",
		Run:      r.run,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSlurmSource_ListLiveJobs(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"squeue": "101|sim|RUNNING|00:10:00|2|16\n"}}
	src := newTestSource(r)

	jobs, err := src.ListLiveJobs(context.Background(), "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 || jobs[0].JobID != "101" {
		t.Fatalf("expected job 101, got %+v", jobs)
	}

	if len(r.calls) != 1 || r.calls[0].name != "squeue" {
		t.Fatalf("expected one squeue call, got %+v", r.calls)
	}
	if got := strings.Join(r.calls[0].args, " "); got != "-u alice -h -o %A|%j|%T|%M|%D|%C" {
		t.Fatalf("unexpected squeue args: %s", got)
	}
}

func TestSlurmSource_ListLiveJobsFailure(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1"), stderr: "squeue: error: Invalid user: bob\n"}
	src := newTestSource(r)

	_, err := src.ListLiveJobs(context.Background(), "bob")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid user: bob") {
		t.Fatalf("expected stderr in message, got %q", err.Error())
	}
}

func TestSlurmSource_ResolveWorkingDirectory(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"scontrol": "JobId=101\n   WorkDir=/scratch/alice/101\n"}}
	src := newTestSource(r)

	dir, err := src.ResolveWorkingDirectory(context.Background(), "101")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if dir != "/scratch/alice/101" {
		t.Fatalf("expected /scratch/alice/101, got %q", dir)
	}
	if got := strings.Join(r.calls[0].args, " "); got != "show job 101" {
		t.Fatalf("unexpected scontrol args: %s", got)
	}
}

func TestSlurmSource_ResolveWorkingDirectoryFailureIsUnknown(t *testing.T) {
	src := newTestSource(&fakeRunner{err: errors.New("exit status 1")})

	dir, err := src.ResolveWorkingDirectory(context.Background(), "404")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if dir != "" {
		t.Fatalf("expected unknown dir, got %q", dir)
	}
}

func TestSlurmSource_ResolveWorkingDirectoryCancelled(t *testing.T) {
	src := newTestSource(&fakeRunner{err: errors.New("signal: killed")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.ResolveWorkingDirectory(ctx, "101"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewSlurmSource_EnvOverrides(t *testing.T) {
	t.Setenv("JOB_STATUS_SQUEUE", "/opt/slurm/bin/squeue")
	t.Setenv("JOB_STATUS_SCONTROL", "")

	src := NewSlurmSource(nil)
	if src.Squeue != "/opt/slurm/bin/squeue" || src.Scontrol != "scontrol" {
		t.Fatalf("unexpected binaries: %s, %s", src.Squeue, src.Scontrol)
	}
	if src.Logger == nil {
		t.Fatal("expected default logger")
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	if _, _, err := ExecRunner(context.Background(), "job-status-no-such-binary"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestExecRunner_CancelledWrapperReturnsPromptly(t *testing.T) {
	// The shell forks sleep, which keeps the output pipes open after the
	// shell itself is killed.
	script := filepath.Join(t.TempDir(), "squeue")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 5\necho done\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := ExecRunner(ctx, script)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error from cancelled command")
	}
	if elapsed > time.Second {
		t.Fatalf("expected prompt return after cancel, took %s", elapsed)
	}
}
