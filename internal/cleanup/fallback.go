package cleanup

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"cachesweep/internal/disk"
	"cachesweep/internal/metrics"
	"cachesweep/internal/system"
)

var (
	// ErrFallbackExhausted is the non-fatal give-up reported when every
	// strategy of a chain failed or was unavailable.
	ErrFallbackExhausted = errors.New("all deletion strategies failed")
	// ErrUnavailable is returned by a strategy that cannot run in the
	// current context (missing tool, no invoking user, disabled).
	ErrUnavailable = errors.New("strategy unavailable")
)

// Request is the work handed to a chain: empty the contents of every dir.
type Request struct {
	Dirs   []string
	DryRun bool
}

// Outcome is the uniform result of one strategy attempt. A nil Stats means
// the strategy cannot account per entry and the chain measures instead.
// Final stops the chain after a failure that no later strategy may handle.
type Outcome struct {
	Succeeded bool
	Final     bool
	Stats     *CleanStats
	Err       error
}

// Strategy is one way of emptying a set of directories.
type Strategy interface {
	Name() string
	// DryRunSafe reports whether Attempt honors Request.DryRun. Unsafe
	// strategies are skipped in dry-run mode.
	DryRunSafe() bool
	Attempt(ctx context.Context, req Request) Outcome
}

// Attempt records what happened to one strategy during a chain run.
type Attempt struct {
	Strategy string
	Outcome  string
	Err      error
}

// ChainResult is the aggregate of a chain run.
type ChainResult struct {
	Stats        CleanStats
	Method       string
	BytesUnknown bool
	Denied       bool
	Attempts     []Attempt
	Err          error
}

// Chain tries its strategies in order and stops at the first success.
type Chain struct {
	strategies []Strategy
	log        logrus.FieldLogger
}

func NewChain(log logrus.FieldLogger, strategies ...Strategy) *Chain {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Chain{strategies: strategies, log: log}
}

// Names lists the strategies in the order they are tried.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Run executes the chain. When a strategy succeeds without stats the freed
// bytes are the shrinkage of req.Dirs across the run, and entries counted by
// earlier failed attempts are kept; if nothing could be measured beforehand
// the result is flagged BytesUnknown. A Final failure ends the run with its
// error and no escalation.
func (c *Chain) Run(ctx context.Context, req Request) ChainResult {
	var res ChainResult
	if len(req.Dirs) == 0 {
		return res
	}

	before := totalSize(req.Dirs)
	var partial CleanStats
	var lastErr error

	for _, s := range c.strategies {
		log := c.log.WithFields(logrus.Fields{"strategy": s.Name(), "dirs": req.Dirs})

		if req.DryRun && !s.DryRunSafe() {
			c.record(&res, s.Name(), "skipped", nil)
			log.Info("[DRY RUN] Would try fallback")
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Err = err
			res.Stats = partial
			return res
		}

		out := s.Attempt(ctx, req)
		if out.Succeeded {
			c.record(&res, s.Name(), "success", nil)
			res.Method = s.Name()
			if out.Stats != nil {
				res.Stats = *out.Stats
			} else {
				res.Stats = partial
				res.Stats.BytesFreed = max(disk.Shrinkage(before, totalSize(req.Dirs)), partial.BytesFreed)
				res.BytesUnknown = before == 0
			}
			res.Denied = len(res.Attempts) > 1
			log.Debug("strategy succeeded")
			return res
		}

		if out.Stats != nil {
			partial.Add(*out.Stats)
		}
		lastErr = out.Err
		if out.Final {
			c.record(&res, s.Name(), "failure", out.Err)
			log.WithError(out.Err).Warn("strategy failed, not escalating")
			res.Stats = partial
			res.Err = fmt.Errorf("%s: %w", s.Name(), out.Err)
			return res
		}
		if isUnavailable(out.Err) {
			c.record(&res, s.Name(), "unavailable", out.Err)
			log.WithError(out.Err).Debug("strategy unavailable")
		} else {
			c.record(&res, s.Name(), "failure", out.Err)
			log.WithError(out.Err).Warn("strategy failed")
		}
	}

	res.Stats = partial
	res.Denied = true
	if req.DryRun {
		// A real run would have escalated; what it frees cannot be known.
		res.BytesUnknown = true
		return res
	}
	if lastErr != nil {
		res.Err = fmt.Errorf("%w: %w", ErrFallbackExhausted, lastErr)
	} else {
		res.Err = ErrFallbackExhausted
	}
	return res
}

func (c *Chain) record(res *ChainResult, name, outcome string, err error) {
	res.Attempts = append(res.Attempts, Attempt{Strategy: name, Outcome: outcome, Err: err})
	metrics.RecordFallbackAttempt(name, outcome)
}

func isUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable) || system.IsMissing(err)
}

func totalSize(dirs []string) uint64 {
	var total uint64
	for _, d := range dirs {
		total += disk.DirectorySize(d)
	}
	return total
}
