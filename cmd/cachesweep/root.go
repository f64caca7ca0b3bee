package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cachesweep/internal/config"
	"cachesweep/internal/exitcodes"
	"cachesweep/internal/identity"
	"cachesweep/internal/logging"
	"cachesweep/internal/metrics"
)

var (
	// Global flags
	configPath string
	debug      bool
	dryRun     bool

	// Populated by setup before any subcommand runs.
	ident *identity.Identity
	cfg   *config.Config
	log   *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cachesweep",
	Short: "Reclaim disk space from caches, trash and logs",
	Long: `cachesweep deletes cache, trash and log entries under the fixed
per-user locations, never following a symlink out of the directory being
cleaned, and reports on large or stale files.

When run under sudo it acts on the invoking user's home, and falls back to
Finder automation or to the invoking user's identity when the trash cannot
be emptied directly.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (default ~/.config/cachesweep/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Show detailed operation logs")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Report what would be freed without deleting anything")

	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(largeCmd)
	rootCmd.AddCommand(oldCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(diskCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(flushDNSCmd)
}

// setup resolves who we act for, then loads configuration relative to that
// user's home.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	ident, err = identity.Resolve()
	if err != nil {
		return withCode(exitcodes.IdentityFailure, fmt.Errorf("resolve identity: %w", err))
	}

	home := ident.Home()
	if configPath == "" {
		cfg, err = config.LoadOrDefault(config.DefaultPath(home), home)
	} else {
		cfg, err = config.Load(configPath, home)
	}
	if err != nil {
		return withCode(exitcodes.InvalidConfig, fmt.Errorf("load config: %w", err))
	}
	if dryRun {
		cfg.DryRun = true
	}

	log = logging.New(cfg, debug)
	metrics.Init()

	log.WithFields(logrus.Fields{
		"user":     ident.Target().Name,
		"home":     home,
		"elevated": ident.Elevated(),
		"dry_run":  cfg.DryRun,
	}).Debug("starting")
	return nil
}
