package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ScanCfg struct {
	Exclude       []string `yaml:"exclude" json:"exclude"`               // Directory names skipped at any depth
	LargeMinMB    int      `yaml:"large_min_mb" json:"large_min_mb"`     // Threshold for the large file finder
	LargeLimit    int      `yaml:"large_limit" json:"large_limit"`       // Max results, 0 = unlimited
	OldDays       int      `yaml:"old_days" json:"old_days"`             // Age threshold for the old file finder
	MaxCPUPercent float64  `yaml:"max_cpu_percent" json:"max_cpu_percent"` // Throttle scans, 0 = off
}

type FallbackCfg struct {
	Finder             *bool `yaml:"finder" json:"finder"`                             // Allow the Finder automation bridge
	Delegate           *bool `yaml:"delegate" json:"delegate"`                         // Allow re-running as the invoking user
	VolumeProbeSeconds int   `yaml:"volume_probe_seconds" json:"volume_probe_seconds"` // Stat timeout for mounted volumes
}

type LoggingCfg struct {
	Level        string `yaml:"level" json:"level"`
	File         string `yaml:"file" json:"file"`
	RotationDays int    `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type MetricsCfg struct {
	Textfile string `yaml:"textfile" json:"textfile"` // node_exporter textfile path, empty = off
}

type Config struct {
	DryRun        bool        `yaml:"dry_run" json:"dry_run"`
	LogExtensions []string    `yaml:"log_extensions" json:"log_extensions"`
	Scan          ScanCfg     `yaml:"scan" json:"scan"`
	Fallback      FallbackCfg `yaml:"fallback" json:"fallback"`
	Logging       LoggingCfg  `yaml:"logging" json:"logging"`
	Metrics       MetricsCfg  `yaml:"metrics" json:"metrics"`
	DatabasePath  string      `yaml:"database_path" json:"database_path"` // "-" disables history
}

const DisabledPath = "-"

var (
	errInvalidPath      = errors.New("path must be absolute")
	errNegative         = errors.New("value cannot be negative")
	errInvalidExtension = errors.New("extension must start with '.'")
	errInvalidLevel     = errors.New("unknown log level")
)

// DefaultPath is where Load looks when no --config is given.
func DefaultPath(home string) string {
	return filepath.Join(home, ".config", "cachesweep", "config.yaml")
}

// Default returns a fully defaulted configuration for home.
func Default(home string) *Config {
	cfg := &Config{}
	if err := cfg.validateAndDefault(home); err != nil {
		panic(err) // defaults are always valid
	}
	return cfg
}

// Load reads and validates the yaml file at path.
func Load(path, home string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(home); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields defaults.
func LoadOrDefault(path, home string) (*Config, error) {
	cfg, err := Load(path, home)
	if errors.Is(err, os.ErrNotExist) {
		return Default(home), nil
	}
	return cfg, err
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault(home string) error {
	if len(c.LogExtensions) == 0 {
		c.LogExtensions = []string{".log", ".txt"}
	}
	for _, ext := range c.LogExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("log_extensions %q: %w", ext, errInvalidExtension)
		}
	}

	if c.Scan.Exclude == nil {
		c.Scan.Exclude = []string{"Library", "System", ".Trash"}
	}
	if c.Scan.LargeMinMB < 0 || c.Scan.LargeLimit < 0 || c.Scan.OldDays < 0 || c.Scan.MaxCPUPercent < 0 {
		return fmt.Errorf("scan: %w", errNegative)
	}
	if c.Scan.LargeMinMB == 0 {
		c.Scan.LargeMinMB = 100
	}
	if c.Scan.LargeLimit == 0 {
		c.Scan.LargeLimit = 20
	}
	if c.Scan.OldDays == 0 {
		c.Scan.OldDays = 180
	}

	// Both fallbacks default to enabled
	if c.Fallback.Finder == nil {
		c.Fallback.Finder = boolPtr(true)
	}
	if c.Fallback.Delegate == nil {
		c.Fallback.Delegate = boolPtr(true)
	}
	if c.Fallback.VolumeProbeSeconds < 0 {
		return fmt.Errorf("fallback.volume_probe_seconds: %w", errNegative)
	}
	if c.Fallback.VolumeProbeSeconds == 0 {
		c.Fallback.VolumeProbeSeconds = 5
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "silent":
	default:
		return fmt.Errorf("logging.level %q: %w", c.Logging.Level, errInvalidLevel)
	}
	if c.Logging.RotationDays < 0 {
		return fmt.Errorf("logging.rotation_days: %w", errNegative)
	}
	if c.Logging.RotationDays == 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}

	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(home, ".local", "state", "cachesweep", "history.db")
	}

	var err error
	if c.Logging.File, err = cleanAbsolute(c.Logging.File, home); err != nil {
		return err
	}
	if c.Metrics.Textfile, err = cleanAbsolute(c.Metrics.Textfile, home); err != nil {
		return err
	}
	if c.DatabasePath != DisabledPath {
		if c.DatabasePath, err = cleanAbsolute(c.DatabasePath, home); err != nil {
			return err
		}
	}
	return nil
}

// cleanAbsolute expands a leading ~ and requires an absolute result.
// Empty stays empty.
func cleanAbsolute(p, home string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" {
		p = home
	} else if strings.HasPrefix(p, "~/") {
		p = filepath.Join(home, p[2:])
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}

func boolPtr(b bool) *bool { return &b }

// FinderEnabled reports whether the Finder bridge may be used.
func (c *Config) FinderEnabled() bool { return c.Fallback.Finder == nil || *c.Fallback.Finder }

// DelegateEnabled reports whether delegation to the invoking user may be used.
func (c *Config) DelegateEnabled() bool { return c.Fallback.Delegate == nil || *c.Fallback.Delegate }

// VolumeProbeTimeout is the stat timeout used to detect hung volumes.
func (c *Config) VolumeProbeTimeout() time.Duration {
	return time.Duration(c.Fallback.VolumeProbeSeconds) * time.Second
}

// HistoryEnabled reports whether sweep history should be recorded.
func (c *Config) HistoryEnabled() bool { return c.DatabasePath != DisabledPath }
