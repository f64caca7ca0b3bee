package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"cachesweep/internal/disk"
	"cachesweep/internal/fsops"
	"cachesweep/internal/metrics"
	"cachesweep/internal/safety"
)

// ErrPartialRemoval wraps a recursive delete that removed some, but not all,
// of a directory subtree.
var ErrPartialRemoval = errors.New("partial removal")

// SafeDeleter removes, or in dry-run measures, a single target that must lie
// inside a base directory.
type SafeDeleter struct {
	fs  fsops.Deleter
	log logrus.FieldLogger
}

// NewSafeDeleter returns a SafeDeleter. A nil fs means the real filesystem.
func NewSafeDeleter(fs fsops.Deleter, log logrus.FieldLogger) *SafeDeleter {
	if fs == nil {
		fs = fsops.OS
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SafeDeleter{fs: fs, log: log}
}

// Delete removes target if it resolves inside base. Targets outside base,
// and targets that no longer exist, yield zero stats and no error. A
// permission failure yields zero stats and an error matching
// fs.ErrPermission so the caller can decide whether to escalate.
//
// Directories are measured before removal. If a recursive delete fails part
// way the pre-measured size is still reported together with an
// ErrPartialRemoval error, which overstates what was freed.
func (d *SafeDeleter) Delete(base, target string, dryRun bool) (CleanStats, error) {
	guard, err := safety.NewGuard(base)
	if err != nil {
		d.log.WithField("base", base).WithError(err).Debug("base not resolvable, skipping")
		return CleanStats{}, nil
	}
	return d.deleteIn(guard, target, dryRun)
}

func (d *SafeDeleter) deleteIn(guard *safety.Guard, target string, dryRun bool) (CleanStats, error) {
	if err := guard.Check(target); err != nil {
		if !errors.Is(err, safety.ErrVanished) {
			metrics.RecordContainmentRejection()
		}
		d.log.WithFields(logrus.Fields{"base": guard.Base, "path": target}).
			WithError(err).Debug("target rejected")
		return CleanStats{}, nil
	}

	info, err := os.Lstat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CleanStats{}, nil
		}
		return CleanStats{}, err
	}

	if !info.IsDir() {
		size := uint64(max(info.Size(), 0))
		if dryRun {
			d.log.WithFields(logrus.Fields{"path": target, "bytes": size}).Info("[DRY RUN] Would remove file")
			return CleanStats{BytesFreed: size, FilesDeleted: 1}, nil
		}
		if err := d.fs.Remove(target); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return CleanStats{}, nil
			}
			return CleanStats{}, err
		}
		d.log.WithFields(logrus.Fields{"path": target, "bytes": size}).Debug("removed file")
		return CleanStats{BytesFreed: size, FilesDeleted: 1}, nil
	}

	size := disk.DirectorySize(target)
	if dryRun {
		d.log.WithFields(logrus.Fields{"path": target, "bytes": size}).Info("[DRY RUN] Would remove directory")
		return CleanStats{BytesFreed: size, DirsDeleted: 1}, nil
	}
	if err := d.fs.RemoveAll(target); err != nil {
		// Nothing went away: report nothing so the caller can escalate.
		if _, serr := os.Lstat(target); serr == nil && disk.DirectorySize(target) >= size {
			return CleanStats{}, err
		}
		return CleanStats{BytesFreed: size, DirsDeleted: 1}, fmt.Errorf("%w: %s: %w", ErrPartialRemoval, target, err)
	}
	d.log.WithFields(logrus.Fields{"path": target, "bytes": size}).Debug("removed directory")
	return CleanStats{BytesFreed: size, DirsDeleted: 1}, nil
}
