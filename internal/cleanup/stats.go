package cleanup

import "time"

// CleanStats is what one deletion or sweep freed. Values are returned by
// value and summed by the caller.
type CleanStats struct {
	BytesFreed   uint64 `json:"bytes_freed"`
	FilesDeleted uint64 `json:"files_deleted"`
	DirsDeleted  uint64 `json:"dirs_deleted"`
}

// Add accumulates o into s.
func (s *CleanStats) Add(o CleanStats) {
	s.BytesFreed += o.BytesFreed
	s.FilesDeleted += o.FilesDeleted
	s.DirsDeleted += o.DirsDeleted
}

// IsZero reports whether nothing was freed.
func (s CleanStats) IsZero() bool {
	return s == CleanStats{}
}

// Sweep operation names, also used as metric and history labels.
const (
	OpCaches  = "caches"
	OpTrash   = "trash"
	OpVolumes = "volumes"
	OpLogs    = "logs"
)

// Methods recorded on a SweepResult.
const (
	MethodDirect   = "direct"
	MethodFinder   = "finder"
	MethodDelegate = "delegate"
)

// SweepResult reports one sweep. Err is only ever set for a non-fatal give
// up (ErrFallbackExhausted, or a direct failure that must not escalate) or
// cancellation; expected conditions such as a
// missing base leave it nil. BytesUnknown marks a sweep that succeeded
// through a path that cannot measure what it freed, as opposed to a
// genuinely empty base.
type SweepResult struct {
	Operation    string        `json:"operation"`
	Base         string        `json:"base"`
	Stats        CleanStats    `json:"stats"`
	Method       string        `json:"method,omitempty"`
	DryRun       bool          `json:"dry_run"`
	BytesUnknown bool          `json:"bytes_unknown"`
	Denied       bool          `json:"denied"`
	Err          error         `json:"-"`
	Duration     time.Duration `json:"duration"`
}

// Failed reports whether the sweep gave up.
func (r SweepResult) Failed() bool {
	return r.Err != nil
}
