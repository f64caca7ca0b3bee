package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cachesweep/internal/cleanup"
	"cachesweep/internal/database"
	"cachesweep/internal/exitcodes"
	"cachesweep/internal/metrics"
	"cachesweep/internal/runner"
)

var cleanCmd = &cobra.Command{
	Use:       "clean [caches|trash|volumes|logs|all]...",
	Short:     "Delete caches, trash and logs",
	ValidArgs: append(cleanup.Operations(), "all"),
	Args:      cobra.OnlyValidArgs,
	RunE:      runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	ops := parseOperations(args)

	layout, err := cleanup.LayoutFor(ident.Home())
	if err != nil {
		return withCode(exitcodes.IdentityFailure, err)
	}
	engine := cleanup.NewEngine(layout, ident, engineOptions(), log)

	var rec runner.Recorder
	if cfg.HistoryEnabled() {
		db, err := database.Open(cfg.DatabasePath)
		if err != nil {
			log.WithError(err).Warn("sweep history disabled for this run")
		} else {
			defer db.Close()
			rec = db
		}
	}

	report, err := runner.RunAll(cmd.Context(), engine, ops, rec, log)
	printReport(cmd.OutOrStdout(), report, cfg.DryRun)

	if cfg.Metrics.Textfile != "" {
		if werr := metrics.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			log.WithError(werr).Warn("failed to write metrics textfile")
		}
	}

	if err != nil {
		return withCode(exitcodes.RuntimeError, err)
	}
	if report.Partial() {
		return withCode(exitcodes.PartialFailure, fmt.Errorf("%d sweep(s) gave up", report.Failed))
	}
	return nil
}

// parseOperations maps CLI arguments to sweep names. No argument, or "all"
// anywhere, selects every sweep.
func parseOperations(args []string) []string {
	if len(args) == 0 || slices.Contains(args, "all") {
		return cleanup.Operations()
	}
	var ops []string
	for _, a := range args {
		if !slices.Contains(ops, a) {
			ops = append(ops, a)
		}
	}
	return ops
}

func engineOptions() cleanup.Options {
	return cleanup.Options{
		DryRun:             cfg.DryRun,
		LogExtensions:      cfg.LogExtensions,
		Finder:             cfg.FinderEnabled(),
		Delegate:           cfg.DelegateEnabled(),
		VolumeProbeTimeout: cfg.VolumeProbeTimeout(),
	}
}

func printReport(w io.Writer, report runner.Report, dry bool) {
	verb := "freed"
	if dry {
		verb = "would free"
	}

	for _, res := range report.Results {
		fmt.Fprintf(w, "%-8s %s %s  (%d files, %d dirs)%s\n",
			res.Operation, verb, formatBytes(res), res.Stats.FilesDeleted, res.Stats.DirsDeleted, notes(res))
	}
	total := humanize.IBytes(report.Total.BytesFreed)
	if report.BytesUnknown() {
		total += " + unknown"
	}
	fmt.Fprintf(w, "total    %s %s\n", verb, total)
}

func formatBytes(res cleanup.SweepResult) string {
	if res.BytesUnknown && res.Stats.BytesFreed == 0 {
		return "unknown"
	}
	return humanize.IBytes(res.Stats.BytesFreed)
}

func notes(res cleanup.SweepResult) string {
	var parts []string
	if res.Method != "" && res.Method != cleanup.MethodDirect {
		parts = append(parts, "via "+res.Method)
	}
	if res.Denied && res.DryRun {
		parts = append(parts, "access denied, a real run would escalate")
	}
	if res.Err != nil {
		parts = append(parts, "gave up: "+res.Err.Error())
	}
	if len(parts) == 0 {
		return ""
	}
	return "  [" + strings.Join(parts, "; ") + "]"
}
