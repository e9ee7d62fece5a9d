package db

import (
	"context"
	"database/sql"

	"github.com/adamavenir/job-status/internal/types"
)

// ContextDBTX represents the context-aware methods shared by sql.DB and sql.Tx.
type ContextDBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const jobSnapshotColumns = `job_id, job_name, job_status, run_time, nodes, cpus, log_err_size, log_out_size, captured_at`

// UpsertJobSnapshot inserts a snapshot or replaces the row with the same job id.
func UpsertJobSnapshot(ctx context.Context, db ContextDBTX, snap types.JobSnapshot) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO job_status (`+jobSnapshotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			job_name = excluded.job_name,
			job_status = excluded.job_status,
			run_time = excluded.run_time,
			nodes = excluded.nodes,
			cpus = excluded.cpus,
			log_err_size = excluded.log_err_size,
			log_out_size = excluded.log_out_size,
			captured_at = excluded.captured_at
	`, snap.JobID, snap.JobName, snap.Status, snap.RunTime, snap.Nodes, snap.CPUs,
		snap.LogErrSize, snap.LogOutSize, snap.CapturedAt)
	return err
}

// GetJobSnapshot returns the snapshot for a job id, or nil when none is stored.
func GetJobSnapshot(ctx context.Context, db ContextDBTX, jobID string) (*types.JobSnapshot, error) {
	row := db.QueryRowContext(ctx, `SELECT `+jobSnapshotColumns+` FROM job_status WHERE job_id = ?`, jobID)
	snap, err := scanJobSnapshot(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

// GetJobSnapshotsByRecency returns every stored snapshot, most recently captured first.
func GetJobSnapshotsByRecency(ctx context.Context, db ContextDBTX) ([]types.JobSnapshot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+jobSnapshotColumns+`
		FROM job_status
		ORDER BY captured_at DESC, job_id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []types.JobSnapshot
	for rows.Next() {
		snap, err := scanJobSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// CountJobSnapshots returns the number of stored jobs.
func CountJobSnapshots(ctx context.Context, db ContextDBTX) (int64, error) {
	row := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM job_status")
	var count int64
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobSnapshot(row rowScanner) (types.JobSnapshot, error) {
	var snap types.JobSnapshot
	var name, status, runTime, nodes, cpus, errSize, outSize sql.NullString
	if err := row.Scan(&snap.JobID, &name, &status, &runTime, &nodes, &cpus, &errSize, &outSize, &snap.CapturedAt); err != nil {
		return types.JobSnapshot{}, err
	}
	snap.JobName = name.String
	snap.Status = status.String
	snap.RunTime = runTime.String
	snap.Nodes = nodes.String
	snap.CPUs = cpus.String
	snap.LogErrSize = errSize.String
	snap.LogOutSize = outSize.String
	return snap, nil
}
