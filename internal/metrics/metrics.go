package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	// Registry holds every cachesweep collector. It is separate from the
	// default registry so the textfile export only carries our series.
	Registry = prometheus.NewRegistry()
)

// Init initializes all metrics subsystems and registers them.
// This function is safe to call multiple times (uses sync.Once)
func Init() {
	initOnce.Do(func() {
		initCleanupMetrics()
		initScanMetrics()

		registerCleanupMetrics()
		registerScanMetrics()

		LastRunTimestamp.Set(0)
	})
}

// WriteTextfile writes the current values in the Prometheus text format to
// path, for pickup by node_exporter's textfile collector.
func WriteTextfile(path string) error {
	Init()
	return prometheus.WriteToTextfile(path, Registry)
}
