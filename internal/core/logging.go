package core

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultLogFile is written in the working directory; the terminal belongs to
// the job table while the monitor runs.
const DefaultLogFile = "job-status.log"

// OpenLogger returns a text logger appending to path, tagged with a fresh run id.
// The returned closer releases the log file.
func OpenLogger(path string, debug bool) (*slog.Logger, io.Closer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return NewLogger(f, debug), f, nil
}

// NewLogger returns a text logger writing to w, tagged with a fresh run id.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("run_id", uuid.NewString())
}
