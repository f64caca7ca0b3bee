// Package system wraps the external OS utilities the cleaner shells out to.
// Every invocation is argv-only (no shell) and its exit status is the sole
// success signal.
package system

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrToolMissing is returned when the requested binary cannot be found.
var ErrToolMissing = errors.New("tool not available")

// Runner executes a command and reports only whether it exited cleanly.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Log logrus.FieldLogger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrToolMissing, name, err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	out, err := cmd.CombinedOutput()
	if r.Log != nil {
		r.Log.WithFields(logrus.Fields{
			"cmd":    path,
			"args":   strings.Join(args, " "),
			"output": strings.TrimSpace(string(out)),
		}).Debug("External command finished")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// IsMissing reports whether err means the tool is absent rather than failed.
func IsMissing(err error) bool {
	return errors.Is(err, ErrToolMissing)
}
