// Package runner sequences the sweeps for a "clean everything" run. One
// sweep failing never stops the others; each result is reported on its own
// and the caller receives the summed total.
package runner

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"cachesweep/internal/cleanup"
	"cachesweep/internal/database"
	"cachesweep/internal/metrics"
)

// Recorder persists sweep results. *database.HistoryDB satisfies it.
type Recorder interface {
	RecordSweep(database.SweepRecord) (int64, error)
}

// Report is the outcome of one RunAll.
type Report struct {
	Results  []cleanup.SweepResult
	Total    cleanup.CleanStats
	Failed   int
	Duration time.Duration
}

// Partial reports whether at least one sweep gave up.
func (r Report) Partial() bool {
	return r.Failed > 0
}

// BytesUnknown reports whether any sweep freed an unmeasured amount.
func (r Report) BytesUnknown() bool {
	for _, res := range r.Results {
		if res.BytesUnknown {
			return true
		}
	}
	return false
}

// Sweeper is the part of the engine RunAll drives.
type Sweeper interface {
	Sweep(ctx context.Context, op string) (cleanup.SweepResult, error)
}

// RunAll runs ops in order (all operations when empty). rec may be nil. The
// returned error is reserved for unknown operations and cancellation;
// sweep give-ups are in the report.
func RunAll(ctx context.Context, engine Sweeper, ops []string, rec Recorder, log logrus.FieldLogger) (Report, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if len(ops) == 0 {
		ops = cleanup.Operations()
	}
	for _, op := range ops {
		if !slices.Contains(cleanup.Operations(), op) {
			return Report{}, fmt.Errorf("unknown operation %q", op)
		}
	}

	start := time.Now()
	metrics.RecordRun()
	var report Report

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}

		res, err := engine.Sweep(ctx, op)
		if err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		report.Results = append(report.Results, res)
		report.Total.Add(res.Stats)
		if res.Failed() {
			report.Failed++
		}

		if rec != nil {
			if _, err := rec.RecordSweep(toRecord(res)); err != nil {
				log.WithError(err).WithField("operation", op).Warn("failed to record sweep history")
			}
		}
	}

	report.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"sweeps":      len(report.Results),
		"failed":      report.Failed,
		"bytes_freed": report.Total.BytesFreed,
		"duration":    report.Duration.Round(time.Millisecond),
	}).Info("run complete")
	return report, nil
}

func toRecord(res cleanup.SweepResult) database.SweepRecord {
	rec := database.SweepRecord{
		Timestamp:    time.Now(),
		Operation:    res.Operation,
		Base:         res.Base,
		BytesFreed:   res.Stats.BytesFreed,
		FilesDeleted: res.Stats.FilesDeleted,
		DirsDeleted:  res.Stats.DirsDeleted,
		DryRun:       res.DryRun,
		Method:       res.Method,
		BytesUnknown: res.BytesUnknown,
		Failed:       res.Failed(),
		DurationMS:   res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		rec.ErrorMessage = res.Err.Error()
	}
	return rec
}
