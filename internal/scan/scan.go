// Package scan implements the read-only finders. Nothing here deletes, so
// there is no containment check and no dry-run.
package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"cachesweep/internal/limiter"
	"cachesweep/internal/metrics"
)

// DefaultExclude are directory names skipped at any depth.
var DefaultExclude = []string{"Library", "System", ".Trash"}

// LargeFile is one FindLarge match.
type LargeFile struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// OldFile is one FindOld match.
type OldFile struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Scanner walks trees looking for large or stale files.
type Scanner struct {
	exclude map[string]struct{}
	limiter *limiter.CPULimiter
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewScanner returns a scanner skipping the named directories. A nil
// exclude uses DefaultExclude; lim may be nil.
func NewScanner(exclude []string, lim *limiter.CPULimiter, log logrus.FieldLogger) *Scanner {
	if exclude == nil {
		exclude = DefaultExclude
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	set := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		set[name] = struct{}{}
	}
	return &Scanner{exclude: set, limiter: lim, log: log, now: time.Now}
}

// FindLarge returns files under root strictly larger than minSize,
// largest first, truncated to limit when limit > 0. Unreadable entries are
// skipped. The only error is ctx's.
func (s *Scanner) FindLarge(ctx context.Context, root string, minSize int64, limit int) ([]LargeFile, error) {
	start := time.Now()
	var found []LargeFile

	err := s.walk(ctx, root, func(path string, info fs.FileInfo) {
		if info.Size() > minSize {
			found = append(found, LargeFile{Path: path, Size: info.Size()})
		}
	})

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Size > found[j].Size
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	metrics.RecordScan("large", len(found), time.Since(start))
	s.log.WithFields(logrus.Fields{"root": root, "matches": len(found)}).Debug("large file scan complete")
	return found, err
}

// FindOld returns files under root last modified more than
// maxAgeDays ago, in walk order.
func (s *Scanner) FindOld(ctx context.Context, root string, maxAgeDays int) ([]OldFile, error) {
	start := time.Now()
	cutoff := s.now().AddDate(0, 0, -maxAgeDays)
	var found []OldFile

	err := s.walk(ctx, root, func(path string, info fs.FileInfo) {
		if info.ModTime().Before(cutoff) {
			found = append(found, OldFile{Path: path, Size: info.Size(), ModTime: info.ModTime()})
		}
	})

	metrics.RecordScan("old", len(found), time.Since(start))
	s.log.WithFields(logrus.Fields{"root": root, "matches": len(found), "cutoff": cutoff}).Debug("old file scan complete")
	return found, err
}

// walk calls visit for every regular file and symlink under root outside
// excluded directories. Symlinks are reported by their own lstat info and
// never followed.
func (s *Scanner) walk(ctx context.Context, root string, visit func(string, fs.FileInfo)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.log.WithField("path", path).WithError(err).Debug("skipping unreadable entry")
			return nil
		}
		if d.IsDir() {
			if path != root && s.excluded(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		s.limiter.Throttle(ctx)
		info, err := d.Info()
		if err != nil {
			return nil
		}
		visit(path, info)
		return nil
	})
}

func (s *Scanner) excluded(name string) bool {
	_, ok := s.exclude[name]
	return ok
}
