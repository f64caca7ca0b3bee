package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// HistoryDB stores one row per sweep so totals survive across runs.
type HistoryDB struct {
	db *sql.DB
}

// SweepRecord is one stored sweep.
type SweepRecord struct {
	ID           int64
	Timestamp    time.Time
	Operation    string
	Base         string
	BytesFreed   uint64
	FilesDeleted uint64
	DirsDeleted  uint64
	DryRun       bool
	Method       string
	BytesUnknown bool
	Failed       bool
	ErrorMessage string
	DurationMS   int64
}

// Open opens, creating if needed, the history database at dbPath.
func Open(dbPath string) (*HistoryDB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto lets the driver parse DATETIME columns into time.Time
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Forces file creation; Ping alone does not.
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	h := &HistoryDB{db: db}
	if err = h.initSchema(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *HistoryDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sweeps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		operation TEXT NOT NULL,
		base TEXT NOT NULL,
		bytes_freed INTEGER NOT NULL DEFAULT 0,
		files_deleted INTEGER NOT NULL DEFAULT 0,
		dirs_deleted INTEGER NOT NULL DEFAULT 0,
		dry_run BOOLEAN NOT NULL DEFAULT 0,
		method TEXT,
		bytes_unknown BOOLEAN NOT NULL DEFAULT 0,
		failed BOOLEAN NOT NULL DEFAULT 0,
		error_message TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sweeps_timestamp ON sweeps(timestamp);
	CREATE INDEX IF NOT EXISTS idx_sweeps_operation ON sweeps(operation);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := h.db.Exec(schema)
	return err
}

// RecordSweep inserts rec. A zero Timestamp means now.
func (h *HistoryDB) RecordSweep(rec SweepRecord) (int64, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	res, err := h.db.Exec(`
	INSERT INTO sweeps (
		timestamp, operation, base, bytes_freed, files_deleted, dirs_deleted,
		dry_run, method, bytes_unknown, failed, error_message, duration_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Timestamp,
		rec.Operation,
		rec.Base,
		int64(rec.BytesFreed),
		int64(rec.FilesDeleted),
		int64(rec.DirsDeleted),
		rec.DryRun,
		rec.Method,
		rec.BytesUnknown,
		rec.Failed,
		rec.ErrorMessage,
		rec.DurationMS,
	)
	if err != nil {
		return 0, fmt.Errorf("record sweep: %w", err)
	}
	return res.LastInsertId()
}

// Close closes the database connection
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Vacuum compacts the database file.
func (h *HistoryDB) Vacuum() error {
	_, err := h.db.Exec("VACUUM")
	return err
}

// DeleteOldRecords prunes rows older than olderThanDays.
func (h *HistoryDB) DeleteOldRecords(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	res, err := h.db.Exec("DELETE FROM sweeps WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
