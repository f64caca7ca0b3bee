package disk

import (
	"errors"
	"os"
	"syscall"
	"time"

	gopsdisk "github.com/shirou/gopsutil/v4/disk"
)

// UsageStats describes the filesystem that contains a path.
type UsageStats struct {
	Path        string
	TotalBytes  uint64
	UsedBytes   uint64
	FreeBytes   uint64
	UsedPercent float64
}

// Usage returns capacity figures for the filesystem containing path.
func Usage(path string) (*UsageStats, error) {
	u, err := gopsdisk.Usage(path)
	if err != nil {
		return nil, err
	}
	return &UsageStats{
		Path:        u.Path,
		TotalBytes:  u.Total,
		UsedBytes:   u.Used,
		FreeBytes:   u.Free,
		UsedPercent: u.UsedPercent,
	}, nil
}

// IsStale checks whether path sits on a hung or stale mount by attempting a
// stat with a timeout. Returns true if the stat times out or fails with an
// error typical of dead network volumes.
func IsStale(path string, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}

	done := make(chan error, 1)
	go func() {
		_, err := os.Stat(path)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			return false
		}
		return os.IsTimeout(err) ||
			errors.Is(err, syscall.EIO) ||
			errors.Is(err, syscall.ESTALE) ||
			errors.Is(err, syscall.ENXIO)
	case <-time.After(timeout):
		return true
	}
}
