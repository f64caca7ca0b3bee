package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"cachesweep/internal/identity"
	"cachesweep/internal/safety"
	"cachesweep/internal/system"
)

// FinderScript asks the file manager to empty every trash the user owns.
const FinderScript = `tell application "Finder" to empty trash`

// DirectStrategy deletes the children of each dir in-process through a
// SafeDeleter, each dir being its own containment base. It fails only when
// a permission error left something behind; any other error is Final.
type DirectStrategy struct {
	Deleter *SafeDeleter
	Log     logrus.FieldLogger
}

func (DirectStrategy) Name() string     { return MethodDirect }
func (DirectStrategy) DryRunSafe() bool { return true }

func (s DirectStrategy) Attempt(ctx context.Context, req Request) Outcome {
	var stats CleanStats
	var denied error

	for _, dir := range req.Dirs {
		st, err := s.emptyDir(ctx, dir, req.DryRun)
		stats.Add(st)
		if err != nil {
			if !errors.Is(err, fs.ErrPermission) {
				return Outcome{Final: true, Stats: &stats, Err: err}
			}
			denied = err
		}
	}
	if denied != nil {
		return Outcome{Stats: &stats, Err: denied}
	}
	return Outcome{Succeeded: true, Stats: &stats}
}

func (s DirectStrategy) emptyDir(ctx context.Context, dir string, dryRun bool) (CleanStats, error) {
	var stats CleanStats

	guard, err := safety.NewGuard(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, err
	}
	entries, err := os.ReadDir(guard.Base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, err
	}

	var denied error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		st, err := s.Deleter.deleteIn(guard, filepath.Join(guard.Base, entry.Name()), dryRun)
		stats.Add(st)
		if err == nil {
			continue
		}
		if errors.Is(err, fs.ErrPermission) {
			denied = err
			continue
		}
		s.logger().WithField("path", entry.Name()).WithError(err).Warn("skipping entry")
	}
	return stats, denied
}

func (s DirectStrategy) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// BridgeStrategy empties the trash through Finder automation. Finder is
// not subject to the access controls that block a terminal process, but it
// empties every trash at once and reports no sizes.
type BridgeStrategy struct {
	Runner system.Runner
}

func (BridgeStrategy) Name() string     { return MethodFinder }
func (BridgeStrategy) DryRunSafe() bool { return false }

func (s BridgeStrategy) Attempt(ctx context.Context, _ Request) Outcome {
	if s.Runner == nil {
		return Outcome{Err: ErrUnavailable}
	}
	if err := s.Runner.Run(ctx, "osascript", "-e", FinderScript); err != nil {
		return Outcome{Err: fmt.Errorf("finder bridge: %w", err)}
	}
	return Outcome{Succeeded: true}
}

// DelegateStrategy re-runs the deletion as the user who invoked sudo.
type DelegateStrategy struct {
	Delegator identity.Delegator
	Identity  *identity.Identity
}

func (DelegateStrategy) Name() string     { return MethodDelegate }
func (DelegateStrategy) DryRunSafe() bool { return false }

func (s DelegateStrategy) Attempt(ctx context.Context, req Request) Outcome {
	if s.Delegator == nil || s.Identity == nil || !s.Identity.CanDelegate() {
		return Outcome{Err: ErrUnavailable}
	}
	as := *s.Identity.Invoking
	for _, dir := range req.Dirs {
		if err := s.Delegator.RemoveContents(ctx, as, dir); err != nil {
			return Outcome{Err: fmt.Errorf("delegate as %s: %w", as.Name, err)}
		}
	}
	return Outcome{Succeeded: true}
}
