package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Scan subsystem metrics
var (
	// ScanDuration tracks read-only scan durations per kind (large, old)
	ScanDuration *prometheus.HistogramVec

	// ScanMatchesTotal counts files reported by scans
	ScanMatchesTotal *prometheus.CounterVec
)

func initScanMetrics() {
	ScanDuration = newDurationHistogramVec(
		"cachesweep_scan_duration_seconds",
		"Duration of large/old file scans in seconds.",
		[]string{"kind"},
	)

	ScanMatchesTotal = newCounterVec(
		"cachesweep_scan_matches_total",
		"Files matched by large/old file scans.",
		[]string{"kind"},
	)
}

func registerScanMetrics() {
	Registry.MustRegister(ScanDuration)
	Registry.MustRegister(ScanMatchesTotal)
}

// RecordScan records one completed scan.
func RecordScan(kind string, matches int, elapsed time.Duration) {
	Init()
	ScanDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	ScanMatchesTotal.WithLabelValues(kind).Add(float64(matches))
}
