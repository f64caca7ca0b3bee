package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cachesweep/internal/disk"
	"cachesweep/internal/system"
)

var diskCmd = &cobra.Command{
	Use:   "disk",
	Short: "Show usage of the filesystem holding your home",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		u, err := disk.Usage(ident.Home())
		if err != nil {
			return fmt.Errorf("disk usage: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "total %s  used %s (%.1f%%)  free %s\n",
			humanize.IBytes(u.TotalBytes), humanize.IBytes(u.UsedBytes), u.UsedPercent, humanize.IBytes(u.FreeBytes))
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Free inactive memory with purge(8)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !system.PurgeMemory(cmd.Context(), system.ExecRunner{Log: log}) {
			return errors.New("purge failed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "memory purged")
		return nil
	},
}

var flushDNSCmd = &cobra.Command{
	Use:   "flush-dns",
	Short: "Flush the DNS resolver cache (requires sudo)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !ident.Elevated() {
			return errors.New("flush-dns must be run with sudo")
		}
		if !system.FlushDNS(cmd.Context(), system.ExecRunner{Log: log}, true) {
			return errors.New("DNS cache flush failed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "DNS cache flushed")
		return nil
	},
}
