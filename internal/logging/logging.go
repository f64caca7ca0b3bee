package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cachesweep/internal/config"
)

// New builds the process logger. Output always goes to stderr; when
// cfg.Logging.File is set it is also appended there, after rotating a file
// older than the rotation window.
func New(cfg *config.Config, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	if cfg == nil {
		if debug {
			log.SetLevel(logrus.DebugLevel)
		}
		return log
	}

	configureLevel(log, cfg.Logging.Level)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if cfg.Logging.File == "" {
		return log
	}
	f, err := openRotated(cfg.Logging.File, cfg.Logging.RotationDays)
	if err != nil {
		log.WithError(err).Warn("file logging disabled")
		return log
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return log
}

func configureLevel(log *logrus.Logger, level string) {
	if strings.EqualFold(level, "silent") {
		log.SetOutput(io.Discard)
		return
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level, using info")
		return
	}
	log.SetLevel(lvl)
}

func openRotated(path string, rotationDays int) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if rotationDays <= 0 {
		rotationDays = 30
	}
	rotateLogsIfNeeded(path, rotationDays, time.Now())

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// rotateLogsIfNeeded renames logPath with its mtime as suffix once it is
// older than rotationDays, then prunes expired rotations.
func rotateLogsIfNeeded(logPath string, rotationDays int, now time.Time) {
	info, err := os.Stat(logPath)
	if err != nil {
		return
	}

	cutoff := now.AddDate(0, 0, -rotationDays)
	if !info.ModTime().Before(cutoff) {
		return
	}
	rotated := logPath + "." + info.ModTime().Format("20060102-150405")
	if err := os.Rename(logPath, rotated); err != nil {
		return
	}
	cleanupOldLogs(logPath, cutoff)
}

func cleanupOldLogs(logPath string, cutoff time.Time) {
	dir := filepath.Dir(logPath)
	prefix := filepath.Base(logPath) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}
