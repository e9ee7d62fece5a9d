package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/adamavenir/job-status/internal/types"
)

// ErrStoreClosed is returned by HistoryStore operations after Close.
var ErrStoreClosed = errors.New("history store closed")

// HistoryStore is the durable cache of the most recent snapshot per job.
// All access goes through one connection guarded by a mutex, so an upsert is
// never observed half-written and concurrent upserts are never lost.
type HistoryStore struct {
	mu   sync.Mutex
	conn *sql.DB
	path string

	// Now stamps captured_at on every upsert.
	Now func() time.Time
}

// OpenHistoryStore opens (or creates) the history database at path.
func OpenHistoryStore(path string) (*HistoryStore, error) {
	conn, err := OpenDatabase(path)
	if err != nil {
		return nil, err
	}
	if err := InitSchema(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &HistoryStore{conn: conn, path: path, Now: time.Now}, nil
}

// Path returns the database file path.
func (s *HistoryStore) Path() string {
	return s.path
}

// Upsert stores snap as the current knowledge for its job id. Any CapturedAt
// on the argument is ignored; the stored value is the store clock.
func (s *HistoryStore) Upsert(ctx context.Context, snap types.JobSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrStoreClosed
	}

	snap.CapturedAt = s.Now().UnixMilli()
	return UpsertJobSnapshot(ctx, s.conn, snap)
}

// AllOrderedByRecency returns every snapshot, most recently captured first.
func (s *HistoryStore) AllOrderedByRecency(ctx context.Context) ([]types.JobSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrStoreClosed
	}
	return GetJobSnapshotsByRecency(ctx, s.conn)
}

// Get returns the stored snapshot for jobID, or nil when the job was never seen.
func (s *HistoryStore) Get(ctx context.Context, jobID string) (*types.JobSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrStoreClosed
	}
	return GetJobSnapshot(ctx, s.conn, jobID)
}

// Count returns the number of stored jobs.
func (s *HistoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return 0, ErrStoreClosed
	}
	return CountJobSnapshots(ctx, s.conn)
}

// Close releases the database handle. It is safe to call more than once.
func (s *HistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
