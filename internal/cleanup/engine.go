package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cachesweep/internal/disk"
	"cachesweep/internal/fsops"
	"cachesweep/internal/identity"
	"cachesweep/internal/metrics"
	"cachesweep/internal/safety"
	"cachesweep/internal/system"
)

// ErrNoHome aborts a sweep that cannot determine a safe base directory.
var ErrNoHome = errors.New("no home directory for sweep")

// Layout is the fixed set of locations the sweeps operate on.
type Layout struct {
	Home        string
	Caches      string
	Trash       string
	Logs        string
	VolumesRoot string
}

// LayoutFor derives the standard layout from a home directory.
func LayoutFor(home string) (Layout, error) {
	if strings.TrimSpace(home) == "" || !filepath.IsAbs(home) {
		return Layout{}, fmt.Errorf("%w: %q", ErrNoHome, home)
	}
	home = filepath.Clean(home)
	return Layout{
		Home:        home,
		Caches:      filepath.Join(home, "Library", "Caches"),
		Trash:       filepath.Join(home, ".Trash"),
		Logs:        filepath.Join(home, "Library", "Logs"),
		VolumesRoot: "/Volumes",
	}, nil
}

// Options tune an Engine.
type Options struct {
	DryRun             bool
	LogExtensions      []string
	Finder             bool
	Delegate           bool
	VolumeProbeTimeout time.Duration
}

// DefaultOptions matches the configuration defaults.
func DefaultOptions() Options {
	return Options{
		LogExtensions:      []string{".log", ".txt"},
		Finder:             true,
		Delegate:           true,
		VolumeProbeTimeout: 5 * time.Second,
	}
}

// Engine runs the cleanup sweeps. It holds no state between calls; every
// sweep returns its own result.
type Engine struct {
	layout    Layout
	ident     *identity.Identity
	opts      Options
	log       logrus.FieldLogger
	deleter   *SafeDeleter
	runner    system.Runner
	delegator identity.Delegator
}

// NewEngine builds an engine acting on behalf of ident's target user.
func NewEngine(layout Layout, ident *identity.Identity, opts Options, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	runner := system.ExecRunner{Log: log}
	return &Engine{
		layout:    layout,
		ident:     ident,
		opts:      opts,
		log:       log,
		deleter:   NewSafeDeleter(fsops.OS, log),
		runner:    runner,
		delegator: identity.NewSudoDelegator(runner),
	}
}

// SetDeleter replaces the filesystem backend. Used by tests.
func (e *Engine) SetDeleter(d fsops.Deleter) {
	e.deleter = NewSafeDeleter(d, e.log)
}

// SetRunner replaces the subprocess runner used by the Finder bridge.
func (e *Engine) SetRunner(r system.Runner) {
	e.runner = r
}

// SetDelegator replaces the capability used to act as the invoking user.
func (e *Engine) SetDelegator(d identity.Delegator) {
	e.delegator = d
}

// Layout returns the locations the engine sweeps.
func (e *Engine) Layout() Layout { return e.layout }

// DryRun reports whether sweeps only measure.
func (e *Engine) DryRun() bool { return e.opts.DryRun }

// Options returns the options the engine was built with.
func (e *Engine) Options() Options { return e.opts }

// Operations lists the sweeps in the order RunAll executes them.
func Operations() []string {
	return []string{OpCaches, OpTrash, OpVolumes, OpLogs}
}

// Sweep runs the named operation.
func (e *Engine) Sweep(ctx context.Context, op string) (SweepResult, error) {
	switch op {
	case OpCaches:
		return e.CleanCaches(ctx), nil
	case OpTrash:
		return e.CleanTrash(ctx), nil
	case OpVolumes:
		return e.CleanVolumeTrash(ctx), nil
	case OpLogs:
		return e.CleanLogs(ctx), nil
	}
	return SweepResult{}, fmt.Errorf("unknown operation %q", op)
}

// CleanCaches removes each immediate child of the cache root wholesale.
// Entries that cannot be removed are skipped; there is no fallback.
func (e *Engine) CleanCaches(ctx context.Context) SweepResult {
	res, start := e.begin(OpCaches, e.layout.Caches)
	if res.Err != nil {
		return e.finish(res, start)
	}

	if _, err := os.Lstat(res.Base); errors.Is(err, fs.ErrNotExist) {
		return e.finish(res, start)
	}

	out := DirectStrategy{Deleter: e.deleter, Log: e.log}.Attempt(ctx, Request{Dirs: []string{res.Base}, DryRun: e.opts.DryRun})
	res.Stats = *out.Stats
	res.Method = MethodDirect
	if out.Err != nil {
		if errors.Is(out.Err, context.Canceled) || errors.Is(out.Err, context.DeadlineExceeded) {
			res.Err = out.Err
		} else {
			res.Denied = true
			e.log.WithField("base", res.Base).WithError(out.Err).Warn("some cache entries were skipped")
		}
	}
	return e.finish(res, start)
}

// CleanTrash empties the home trash, escalating through the fallback chain
// once for the whole trash when direct removal is denied.
func (e *Engine) CleanTrash(ctx context.Context) SweepResult {
	res, start := e.begin(OpTrash, e.layout.Trash)
	if res.Err != nil {
		return e.finish(res, start)
	}
	if _, err := os.Lstat(res.Base); errors.Is(err, fs.ErrNotExist) {
		return e.finish(res, start)
	}

	chain := NewChain(e.log, e.withFallbacks(DirectStrategy{Deleter: e.deleter, Log: e.log})...)
	e.apply(&res, chain.Run(ctx, Request{Dirs: []string{res.Base}, DryRun: e.opts.DryRun}))
	return e.finish(res, start)
}

// CleanVolumeTrash empties the per-user and legacy trash of every mounted
// volume. Locations denied to the direct attempt are handed together to a
// single fallback run, so the Finder bridge fires at most once.
func (e *Engine) CleanVolumeTrash(ctx context.Context) SweepResult {
	res, start := e.begin(OpVolumes, e.layout.VolumesRoot)
	if res.Err != nil {
		return e.finish(res, start)
	}

	volumes, err := os.ReadDir(e.layout.VolumesRoot)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.log.WithField("root", e.layout.VolumesRoot).WithError(err).Warn("cannot list volumes")
		}
		return e.finish(res, start)
	}

	direct := DirectStrategy{Deleter: e.deleter, Log: e.log}
	uid := strconv.Itoa(e.target().UID)
	var denied []string

	for _, v := range volumes {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return e.finish(res, start)
		}
		volume := filepath.Join(e.layout.VolumesRoot, v.Name())
		if disk.IsStale(volume, e.opts.VolumeProbeTimeout) {
			e.log.WithField("volume", volume).Warn("volume not responding, skipping")
			continue
		}

		for _, loc := range []string{filepath.Join(volume, ".Trashes", uid), filepath.Join(volume, ".Trash")} {
			if _, err := os.Lstat(loc); err != nil {
				if errors.Is(err, fs.ErrPermission) {
					denied = append(denied, loc)
				}
				continue
			}
			out := direct.Attempt(ctx, Request{Dirs: []string{loc}, DryRun: e.opts.DryRun})
			res.Stats.Add(*out.Stats)
			res.Method = MethodDirect
			if out.Err != nil && errors.Is(out.Err, fs.ErrPermission) {
				denied = append(denied, loc)
			}
		}
	}

	if len(denied) > 0 {
		res.Denied = true
		fallbacks := e.withFallbacks()
		if len(fallbacks) == 0 {
			if e.opts.DryRun {
				res.BytesUnknown = true
			} else {
				res.Err = ErrFallbackExhausted
			}
			return e.finish(res, start)
		}
		cr := NewChain(e.log, fallbacks...).Run(ctx, Request{Dirs: denied, DryRun: e.opts.DryRun})
		res.Stats.Add(cr.Stats)
		res.BytesUnknown = cr.BytesUnknown
		res.Err = cr.Err
		if cr.Method != "" {
			res.Method = cr.Method
		}
	}
	return e.finish(res, start)
}

// CleanLogs walks the whole logs tree and removes files whose name ends in
// one of the configured extensions. Directories are never removed.
func (e *Engine) CleanLogs(ctx context.Context) SweepResult {
	res, start := e.begin(OpLogs, e.layout.Logs)
	if res.Err != nil {
		return e.finish(res, start)
	}

	guard, err := safety.NewGuard(res.Base)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.log.WithField("base", res.Base).WithError(err).Warn("cannot resolve logs root")
		}
		return e.finish(res, start)
	}
	res.Method = MethodDirect

	walkErr := filepath.WalkDir(guard.Base, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil || d.IsDir() || !e.isLogFile(d.Name()) {
			return nil
		}
		st, err := e.deleter.deleteIn(guard, path, e.opts.DryRun)
		res.Stats.Add(st)
		if err != nil {
			e.log.WithField("path", path).WithError(err).Debug("skipping log file")
		}
		return nil
	})
	if walkErr != nil {
		res.Err = walkErr
	}
	return e.finish(res, start)
}

func (e *Engine) isLogFile(name string) bool {
	for _, ext := range e.opts.LogExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// withFallbacks appends the enabled escalation strategies to first.
func (e *Engine) withFallbacks(first ...Strategy) []Strategy {
	strategies := append([]Strategy{}, first...)
	if e.opts.Finder {
		strategies = append(strategies, BridgeStrategy{Runner: e.runner})
	}
	if e.opts.Delegate {
		strategies = append(strategies, DelegateStrategy{Delegator: e.delegator, Identity: e.ident})
	}
	return strategies
}

func (e *Engine) apply(res *SweepResult, cr ChainResult) {
	res.Stats = cr.Stats
	res.Method = cr.Method
	res.BytesUnknown = cr.BytesUnknown
	res.Denied = cr.Denied
	res.Err = cr.Err
}

func (e *Engine) target() identity.User {
	if e.ident == nil {
		return identity.User{UID: os.Getuid(), Home: e.layout.Home}
	}
	return e.ident.Target()
}

func (e *Engine) begin(op, base string) (SweepResult, time.Time) {
	res := SweepResult{Operation: op, Base: base, DryRun: e.opts.DryRun}
	if base == "" {
		res.Err = ErrNoHome
	}
	return res, time.Now()
}

func (e *Engine) finish(res SweepResult, start time.Time) SweepResult {
	res.Duration = time.Since(start)
	metrics.RecordSweep(res.Operation, res.DryRun, res.Stats.BytesFreed, res.Stats.FilesDeleted,
		res.Stats.DirsDeleted, res.Duration, res.Failed())

	log := e.log.WithFields(logrus.Fields{
		"operation":   res.Operation,
		"bytes_freed": res.Stats.BytesFreed,
		"files":       res.Stats.FilesDeleted,
		"dirs":        res.Stats.DirsDeleted,
		"method":      res.Method,
		"dry_run":     res.DryRun,
	})
	if res.BytesUnknown {
		log = log.WithField("bytes_unknown", true)
	}
	if res.Err != nil {
		log.WithError(res.Err).Warn("sweep incomplete")
	} else {
		log.Info("sweep complete")
	}
	return res
}
