package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cachesweep/internal/database"
)

var (
	historyRecent int
	historyTotals bool
	historyDays   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past sweeps from the history database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cfg.HistoryEnabled() {
			return errors.New("history is disabled (database_path is \"-\")")
		}
		db, err := database.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer tw.Flush()

		if historyTotals {
			totals, err := db.GetTotals(historyDays)
			if err != nil {
				return fmt.Errorf("query totals: %w", err)
			}
			fmt.Fprintln(tw, "OPERATION\tRUNS\tFAILED\tFREED\tFILES\tDIRS")
			for _, t := range totals {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\t%d\n",
					t.Operation, t.Runs, t.Failures, humanize.IBytes(t.BytesFreed), t.FilesDeleted, t.DirsDeleted)
			}
			return nil
		}

		records, err := db.GetRecentSweeps(historyRecent)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}
		fmt.Fprintln(tw, "WHEN\tOPERATION\tFREED\tMETHOD\tSTATUS")
		for _, r := range records {
			freed := humanize.IBytes(r.BytesFreed)
			if r.BytesUnknown {
				freed = "unknown"
			}
			status := "ok"
			switch {
			case r.Failed:
				status = "failed: " + r.ErrorMessage
			case r.DryRun:
				status = "dry-run"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				humanize.Time(r.Timestamp), r.Operation, freed, r.Method, status)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyRecent, "recent", 10, "Number of recent sweeps to show")
	historyCmd.Flags().BoolVar(&historyTotals, "totals", false, "Show per-operation totals instead")
	historyCmd.Flags().IntVar(&historyDays, "days", 30, "Window for --totals in days (0 = all time)")
}
