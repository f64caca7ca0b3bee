package identity

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"cachesweep/internal/system"
)

// Delegator runs a deletion as another user. The engine depends on this
// capability only, so tests can substitute a double and never spawn sudo.
type Delegator interface {
	RemoveContents(ctx context.Context, as User, dir string) error
}

// SudoDelegator drops to the target user with sudo and removes the immediate
// children of dir. No shell is involved; dir travels as a single argv entry.
type SudoDelegator struct {
	Runner system.Runner
	Find   string
	Rm     string
}

// NewSudoDelegator returns a delegator using the stock BSD tool locations.
func NewSudoDelegator(r system.Runner) *SudoDelegator {
	return &SudoDelegator{Runner: r, Find: "/usr/bin/find", Rm: "/bin/rm"}
}

func (d *SudoDelegator) RemoveContents(ctx context.Context, as User, dir string) error {
	if as.Name == "" || strings.HasPrefix(as.Name, "-") {
		return fmt.Errorf("%w: user name %q", ErrMalformedUser, as.Name)
	}
	if !filepath.IsAbs(dir) {
		return fmt.Errorf("delegate: directory must be absolute: %s", dir)
	}
	return d.Runner.Run(ctx, "sudo", "-n", "-u", as.Name,
		d.Find, dir, "-mindepth", "1", "-maxdepth", "1",
		"-exec", d.Rm, "-rf", "--", "{}", "+")
}

// NoopDelegator refuses every delegation.
type NoopDelegator struct{}

func (NoopDelegator) RemoveContents(context.Context, User, string) error {
	return fmt.Errorf("delegation disabled: %w", system.ErrToolMissing)
}
