package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cleanup subsystem metrics
var (
	// BytesFreedTotal tracks bytes freed (or that would be freed in dry-run) per operation
	BytesFreedTotal *prometheus.CounterVec

	// FilesDeletedTotal tracks files and symlinks removed per operation
	FilesDeletedTotal *prometheus.CounterVec

	// DirsDeletedTotal tracks directory subtrees removed per operation
	DirsDeletedTotal *prometheus.CounterVec

	// SweepDuration tracks how long each sweep takes
	SweepDuration *prometheus.HistogramVec

	// SweepFailuresTotal counts sweeps that gave up after the fallback chain
	SweepFailuresTotal *prometheus.CounterVec

	// FallbackAttemptsTotal counts fallback strategy attempts by outcome
	FallbackAttemptsTotal *prometheus.CounterVec

	// ContainmentRejectionsTotal counts targets refused by the containment guard
	ContainmentRejectionsTotal prometheus.Counter

	// LastRunTimestamp records Unix timestamp of the last completed run
	LastRunTimestamp prometheus.Gauge
)

func initCleanupMetrics() {
	BytesFreedTotal = newCounterVec(
		"cachesweep_bytes_freed_total",
		"Total bytes freed by cachesweep.",
		[]string{"operation", "dry_run"},
	)

	FilesDeletedTotal = newCounterVec(
		"cachesweep_files_deleted_total",
		"Total files and symlinks deleted by cachesweep.",
		[]string{"operation", "dry_run"},
	)

	DirsDeletedTotal = newCounterVec(
		"cachesweep_dirs_deleted_total",
		"Total directory trees deleted by cachesweep.",
		[]string{"operation", "dry_run"},
	)

	SweepDuration = newDurationHistogramVec(
		"cachesweep_sweep_duration_seconds",
		"Duration of cleanup sweeps in seconds.",
		[]string{"operation"},
	)

	SweepFailuresTotal = newCounterVec(
		"cachesweep_sweep_failures_total",
		"Sweeps that could not complete after every fallback was tried.",
		[]string{"operation"},
	)

	FallbackAttemptsTotal = newCounterVec(
		"cachesweep_fallback_attempts_total",
		"Fallback strategy attempts by strategy and outcome.",
		[]string{"strategy", "outcome"},
	)

	ContainmentRejectionsTotal = newCounter(
		"cachesweep_containment_rejections_total",
		"Deletion targets refused because they resolve outside their base directory.",
	)

	LastRunTimestamp = newGauge(
		"cachesweep_last_run_timestamp",
		"Timestamp of the last cleanup run (Unix epoch seconds).",
	)
}

func registerCleanupMetrics() {
	Registry.MustRegister(BytesFreedTotal)
	Registry.MustRegister(FilesDeletedTotal)
	Registry.MustRegister(DirsDeletedTotal)
	Registry.MustRegister(SweepDuration)
	Registry.MustRegister(SweepFailuresTotal)
	Registry.MustRegister(FallbackAttemptsTotal)
	Registry.MustRegister(ContainmentRejectionsTotal)
	Registry.MustRegister(LastRunTimestamp)
}

// RecordSweep adds one sweep's totals.
func RecordSweep(operation string, dryRun bool, bytes, files, dirs uint64, elapsed time.Duration, failed bool) {
	Init()
	dr := "false"
	if dryRun {
		dr = "true"
	}
	BytesFreedTotal.WithLabelValues(operation, dr).Add(float64(bytes))
	FilesDeletedTotal.WithLabelValues(operation, dr).Add(float64(files))
	DirsDeletedTotal.WithLabelValues(operation, dr).Add(float64(dirs))
	SweepDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if failed {
		SweepFailuresTotal.WithLabelValues(operation).Inc()
	}
}

// RecordFallbackAttempt counts one strategy attempt. outcome is one of
// "success", "failure", "unavailable" or "skipped".
func RecordFallbackAttempt(strategy, outcome string) {
	Init()
	FallbackAttemptsTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordContainmentRejection counts a refused deletion target.
func RecordContainmentRejection() {
	Init()
	ContainmentRejectionsTotal.Inc()
}

// RecordRun updates the last run timestamp to current time
func RecordRun() {
	Init()
	LastRunTimestamp.Set(float64(time.Now().Unix()))
}
