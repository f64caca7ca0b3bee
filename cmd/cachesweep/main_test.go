package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"cachesweep/internal/cleanup"
	"cachesweep/internal/exitcodes"
	"cachesweep/internal/runner"
)

func TestParseOperations(t *testing.T) {
	assert.Equal(t, cleanup.Operations(), parseOperations(nil))
	assert.Equal(t, cleanup.Operations(), parseOperations([]string{"logs", "all"}))
	assert.Equal(t, []string{"trash", "logs"}, parseOperations([]string{"trash", "logs", "trash"}))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitcodes.RuntimeError, exitCode(errors.New("boom")))
	assert.Equal(t, exitcodes.PartialFailure, exitCode(withCode(exitcodes.PartialFailure, errors.New("x"))))

	wrapped := fmt.Errorf("outer: %w", withCode(exitcodes.InvalidConfig, errors.New("bad yaml")))
	assert.Equal(t, exitcodes.InvalidConfig, exitCode(wrapped))
	assert.Nil(t, withCode(exitcodes.RuntimeError, nil))
}

func TestPrintReport(t *testing.T) {
	report := runner.Report{
		Results: []cleanup.SweepResult{
			{Operation: cleanup.OpCaches, Stats: cleanup.CleanStats{BytesFreed: 36700160, DirsDeleted: 2}, Method: cleanup.MethodDirect},
			{Operation: cleanup.OpTrash, Method: cleanup.MethodFinder, BytesUnknown: true, Denied: true},
			{Operation: cleanup.OpVolumes, Err: cleanup.ErrFallbackExhausted, Denied: true},
		},
		Total: cleanup.CleanStats{BytesFreed: 36700160, DirsDeleted: 2},
	}

	var buf bytes.Buffer
	printReport(&buf, report, false)
	out := buf.String()

	assert.Contains(t, out, "caches   freed 35 MiB  (0 files, 2 dirs)\n")
	assert.Contains(t, out, "trash    freed unknown  (0 files, 0 dirs)  [via finder]")
	assert.Contains(t, out, "gave up: all deletion strategies failed")
	assert.Contains(t, out, "total    freed 35 MiB + unknown")
}

func TestPrintReportDryRun(t *testing.T) {
	report := runner.Report{Results: []cleanup.SweepResult{
		{Operation: cleanup.OpTrash, DryRun: true, Denied: true, BytesUnknown: true},
	}}

	var buf bytes.Buffer
	printReport(&buf, report, true)
	assert.Contains(t, buf.String(), "would free unknown")
	assert.Contains(t, buf.String(), "a real run would escalate")
}
