package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cachesweep/internal/limiter"
	"cachesweep/internal/scan"
)

var (
	largeMinMB     int
	largeLimit     int
	largePathsOnly bool

	oldDays      int
	oldPathsOnly bool
)

var largeCmd = &cobra.Command{
	Use:   "large [dir]",
	Short: "List the largest files (default: your home)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minMB := cfg.Scan.LargeMinMB
		if cmd.Flags().Changed("min-mb") {
			minMB = largeMinMB
		}
		limit := cfg.Scan.LargeLimit
		if cmd.Flags().Changed("limit") {
			limit = largeLimit
		}

		found, err := newScanner().FindLarge(cmd.Context(), scanRoot(args), int64(minMB)*1024*1024, limit)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		for _, f := range found {
			if largePathsOnly {
				fmt.Fprintln(w, f.Path)
				continue
			}
			fmt.Fprintf(w, "%10s  %s\n", humanize.IBytes(uint64(f.Size)), f.Path)
		}
		return nil
	},
}

var oldCmd = &cobra.Command{
	Use:   "old [dir]",
	Short: "List files not modified for a long time (default: your home)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		days := cfg.Scan.OldDays
		if cmd.Flags().Changed("days") {
			days = oldDays
		}

		found, err := newScanner().FindOld(cmd.Context(), scanRoot(args), days)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		for _, f := range found {
			if oldPathsOnly {
				fmt.Fprintln(w, f.Path)
				continue
			}
			fmt.Fprintf(w, "%s  %10s  %s\n", f.ModTime.Format("2006-01-02"), humanize.IBytes(uint64(f.Size)), f.Path)
		}
		return nil
	},
}

func init() {
	largeCmd.Flags().IntVar(&largeMinMB, "min-mb", 100, "Minimum size in MiB")
	largeCmd.Flags().IntVar(&largeLimit, "limit", 20, "Maximum number of results (0 = unlimited)")
	largeCmd.Flags().BoolVar(&largePathsOnly, "paths-only", false, "Print paths only")

	oldCmd.Flags().IntVar(&oldDays, "days", 180, "Age threshold in days")
	oldCmd.Flags().BoolVar(&oldPathsOnly, "paths-only", false, "Print paths only")
}

func newScanner() *scan.Scanner {
	return scan.NewScanner(cfg.Scan.Exclude, limiter.NewCPULimiter(cfg.Scan.MaxCPUPercent), log)
}

func scanRoot(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return ident.Home()
}
