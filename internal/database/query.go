package database

import (
	"time"
)

const sweepColumns = `id, timestamp, operation, base, bytes_freed, files_deleted, dirs_deleted,
	dry_run, COALESCE(method, ''), bytes_unknown, failed, COALESCE(error_message, ''), duration_ms`

// OperationTotals sums real (non dry-run) sweeps of one operation.
type OperationTotals struct {
	Operation    string
	Runs         int
	Failures     int
	BytesFreed   uint64
	FilesDeleted uint64
	DirsDeleted  uint64
}

// GetRecentSweeps returns the N most recent sweeps, newest first.
func (h *HistoryDB) GetRecentSweeps(limit int) ([]SweepRecord, error) {
	return h.querySweeps(`SELECT `+sweepColumns+` FROM sweeps ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
}

// GetSweepsByOperation returns all sweeps of one operation, newest first.
func (h *HistoryDB) GetSweepsByOperation(operation string) ([]SweepRecord, error) {
	return h.querySweeps(`SELECT `+sweepColumns+` FROM sweeps WHERE operation = ? ORDER BY timestamp DESC, id DESC`, operation)
}

// GetTotals aggregates real sweeps from the last days days, per operation,
// ordered by operation name. days <= 0 means all time.
func (h *HistoryDB) GetTotals(days int) ([]OperationTotals, error) {
	since := time.Time{}
	if days > 0 {
		since = time.Now().AddDate(0, 0, -days)
	}

	rows, err := h.db.Query(`
	SELECT operation,
	       COUNT(*),
	       COALESCE(SUM(CASE WHEN failed THEN 1 ELSE 0 END), 0),
	       COALESCE(SUM(bytes_freed), 0),
	       COALESCE(SUM(files_deleted), 0),
	       COALESCE(SUM(dirs_deleted), 0)
	FROM sweeps
	WHERE dry_run = 0 AND timestamp >= ?
	GROUP BY operation
	ORDER BY operation
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []OperationTotals
	for rows.Next() {
		var t OperationTotals
		var bytes, files, dirs int64
		if err := rows.Scan(&t.Operation, &t.Runs, &t.Failures, &bytes, &files, &dirs); err != nil {
			return nil, err
		}
		t.BytesFreed, t.FilesDeleted, t.DirsDeleted = uint64(bytes), uint64(files), uint64(dirs)
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// GetTotalBytesFreed sums bytes freed by real sweeps in [start, end].
func (h *HistoryDB) GetTotalBytesFreed(start, end time.Time) (uint64, error) {
	var total int64
	err := h.db.QueryRow(`
	SELECT COALESCE(SUM(bytes_freed), 0)
	FROM sweeps
	WHERE dry_run = 0 AND timestamp BETWEEN ? AND ?
	`, start, end).Scan(&total)
	return uint64(total), err
}

func (h *HistoryDB) querySweeps(query string, args ...any) ([]SweepRecord, error) {
	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SweepRecord
	for rows.Next() {
		var r SweepRecord
		var bytes, files, dirs int64
		if err := rows.Scan(
			&r.ID, &r.Timestamp, &r.Operation, &r.Base, &bytes, &files, &dirs,
			&r.DryRun, &r.Method, &r.BytesUnknown, &r.Failed, &r.ErrorMessage, &r.DurationMS,
		); err != nil {
			return nil, err
		}
		r.BytesFreed, r.FilesDeleted, r.DirsDeleted = uint64(bytes), uint64(files), uint64(dirs)
		records = append(records, r)
	}
	return records, rows.Err()
}
