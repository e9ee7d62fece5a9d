package db

import (
	"database/sql"
	"fmt"
	"strings"
)

const schemaSQL = `
-- Last known state per job (one row per job, overwritten on each observation)
CREATE TABLE IF NOT EXISTS job_status (
  job_id TEXT PRIMARY KEY,             -- scheduler-assigned, e.g. "101"
  job_name TEXT,
  job_status TEXT,                     -- PENDING, RUNNING, COMPLETING, ...
  run_time TEXT,                       -- scheduler formatted, e.g. "00:10:00"
  nodes TEXT,
  cpus TEXT,
  log_err_size TEXT,                   -- "12.34 KB" or "N/A"
  log_out_size TEXT,
  captured_at INTEGER NOT NULL         -- unix ms, stamped on write
);
`

const indexSQL = `
CREATE INDEX IF NOT EXISTS idx_job_status_captured ON job_status(captured_at);
`

// requiredColumns are the job_status columns the queries read and write.
var requiredColumns = []string{
	"job_id", "job_name", "job_status", "run_time", "nodes", "cpus",
	"log_err_size", "log_out_size", "captured_at",
}

// SchemaError reports a job_status table that cannot be migrated, typically
// one created by an unrelated tool under the same file name.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s is missing columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

// DBTX represents shared methods across sql.DB and sql.Tx.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// InitSchema initializes the job history schema.
func InitSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := initSchemaWith(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func initSchemaWith(db DBTX) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return err
	}
	if err := migrateSchema(db); err != nil {
		return err
	}
	if err := verifySchema(db); err != nil {
		return err
	}
	if _, err := db.Exec(indexSQL); err != nil {
		return err
	}
	return nil
}

// SchemaExists reports whether the job history table is present.
func SchemaExists(db DBTX) (bool, error) {
	row := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='job_status'
	`)
	var name string
	err := row.Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return name != "", nil
}

type tableColumn struct {
	Name    string
	ColType string
	NotNull int
	PK      int
}

func getTableInfo(db DBTX, table string) ([]tableColumn, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []tableColumn
	for rows.Next() {
		var col tableColumn
		var cid int
		var defaultValue sql.NullString
		if err := rows.Scan(&cid, &col.Name, &col.ColType, &col.NotNull, &defaultValue, &col.PK); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return columns, nil
}

func hasColumn(columns []tableColumn, name string) bool {
	for _, col := range columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// migrateSchema upgrades databases written by the legacy monitor, which kept
// a local-time "YYYY-MM-DD HH:MM:SS" text column named timestamp.
func migrateSchema(db DBTX) error {
	columns, err := getTableInfo(db, "job_status")
	if err != nil {
		return err
	}
	if len(columns) == 0 || hasColumn(columns, "captured_at") {
		return nil
	}

	if _, err := db.Exec("ALTER TABLE job_status ADD COLUMN captured_at INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	if hasColumn(columns, "timestamp") {
		if _, err := db.Exec(`
			UPDATE job_status
			SET captured_at = CAST(strftime('%s', timestamp, 'utc') AS INTEGER) * 1000
			WHERE timestamp IS NOT NULL AND strftime('%s', timestamp, 'utc') IS NOT NULL
		`); err != nil {
			return err
		}
	}
	return nil
}

func verifySchema(db DBTX) error {
	columns, err := getTableInfo(db, "job_status")
	if err != nil {
		return err
	}
	var missing []string
	for _, name := range requiredColumns {
		if !hasColumn(columns, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Table: "job_status", Missing: missing}
	}
	return nil
}
