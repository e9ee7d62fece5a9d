package scheduler

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/adamavenir/job-status/internal/types"
)

// JobSource queries the batch scheduler.
type JobSource interface {
	// ListLiveJobs returns the operator's active jobs. An empty result is not an error.
	ListLiveJobs(ctx context.Context, operator string) ([]types.LiveJob, error)
	// ResolveWorkingDirectory returns the job's working directory, or "" when unknown.
	ResolveWorkingDirectory(ctx context.Context, jobID string) (string, error)
}

// Runner executes name with args and returns its stdout and stderr.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// execWaitDelay bounds how long ExecRunner waits for output pipes to close
// after the command is killed. A wrapper script's children may keep them open.
const execWaitDelay = 500 * time.Millisecond

// ExecRunner runs commands with exec.CommandContext, so a cancelled context
// kills an in-flight scheduler query.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = execWaitDelay
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// SlurmSource implements JobSource with squeue and scontrol.
type SlurmSource struct {
	Squeue   string
	Scontrol string
	Run      Runner
	Logger   *slog.Logger
}

// NewSlurmSource returns a source using the squeue/scontrol binaries on PATH.
// JOB_STATUS_SQUEUE and JOB_STATUS_SCONTROL override the binary names.
func NewSlurmSource(logger *slog.Logger) *SlurmSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlurmSource{
		Squeue:   envOr("JOB_STATUS_SQUEUE", "squeue"),
		Scontrol: envOr("JOB_STATUS_SCONTROL", "scontrol"),
		Run:      ExecRunner,
		Logger:   logger,
	}
}

// ListLiveJobs runs squeue for operator and parses its output.
func (s *SlurmSource) ListLiveJobs(ctx context.Context, operator string) ([]types.LiveJob, error) {
	args := []string{"-u", operator, "-h", "-o", QueueFormat}
	stdout, stderr, err := s.Run(ctx, s.Squeue, args...)
	if err != nil {
		return nil, &FetchError{Command: s.Squeue + " " + strings.Join(args, " "), Stderr: string(stderr), Err: err}
	}
	return ParseQueue(string(stdout))
}

// ResolveWorkingDirectory runs scontrol for jobID. A failed query resolves to
// an unknown directory rather than an error; only context cancellation is returned.
func (s *SlurmSource) ResolveWorkingDirectory(ctx context.Context, jobID string) (string, error) {
	stdout, stderr, err := s.Run(ctx, s.Scontrol, "show", "job", jobID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		s.Logger.Debug("scontrol failed", "job_id", jobID, "error", err, "stderr", strings.TrimSpace(string(stderr)))
		return "", nil
	}
	return ParseWorkDir(string(stdout)), nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
