package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so history reads do not block run inserts.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			source      TEXT,
			symbols     TEXT,
			start_date  TEXT,
			end_date    TEXT,
			status      TEXT,
			error       TEXT,
			col_count   INTEGER,
			row_count   INTEGER,
			warnings    TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON pipeline_runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO pipeline_runs
		(timestamp, source, symbols, start_date, end_date, status, error, col_count, row_count, warnings, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		ts.UnixMilli(), evt.Trigger, evt.Symbols, evt.Start, evt.End,
		evt.Status, evt.Error, evt.Columns, evt.Rows, evt.Warnings, evt.DurationMs,
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT timestamp, source, symbols, start_date, end_date, status,
		error, col_count, row_count, warnings, duration_ms
		FROM pipeline_runs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunEvent
	for rows.Next() {
		var evt RunEvent
		var ts int64
		if err := rows.Scan(&ts, &evt.Trigger, &evt.Symbols, &evt.Start, &evt.End, &evt.Status,
			&evt.Error, &evt.Columns, &evt.Rows, &evt.Warnings, &evt.DurationMs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		evt.Timestamp = time.UnixMilli(ts)
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
