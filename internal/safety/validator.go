package safety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath   = errors.New("invalid path")
	ErrProtectedPath = errors.New("protected path")
	ErrOutsideBase   = errors.New("outside base directory")
	ErrSymlinkEscape = errors.New("symlink escape detected")
	ErrVanished      = errors.New("target vanished during check")
)

// Guard bounds deletions to a single base directory. The base is resolved
// once; every target is resolved at check time.
type Guard struct {
	Base           string
	ProtectedPaths []string
}

// NewGuard resolves base to its real path. A base that cannot be resolved
// is returned as an error so the caller can treat it as "nothing to clean".
func NewGuard(base string) (*Guard, error) {
	resolved, err := Resolve(base)
	if err != nil {
		return nil, err
	}
	return &Guard{
		Base:           resolved,
		ProtectedPaths: defaultProtected(nil),
	}, nil
}

// Check is the single source of truth for delete authorization inside a
// sweep. Returns a typed error on any violation.
func (g *Guard) Check(target string) error {
	if strings.TrimSpace(target) == "" {
		return ErrInvalidPath
	}

	resolved, err := Resolve(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrVanished
		}
		return err
	}

	if IsProtectedPath(resolved, g.ProtectedPaths) {
		return ErrProtectedPath
	}

	if !hasPathPrefix(resolved, g.Base) {
		if hasPathPrefix(location(target), g.Base) {
			return ErrSymlinkEscape
		}
		return ErrOutsideBase
	}
	return nil
}

// IsWithin reports whether target's real path is base's real path or one of
// its descendants. Any resolution failure, including a target that vanished
// mid-check, yields false.
func IsWithin(base, target string) bool {
	g, err := NewGuard(base)
	if err != nil {
		return false
	}
	return g.Check(target) == nil
}

// Resolve returns the canonical real path of p. Symlinks in every component
// are followed. A dangling symlink resolves to its own location (real parent
// plus link name) since the link itself, not its missing target, is what a
// delete would remove.
func Resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", ErrInvalidPath
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return filepath.Clean(resolved), nil
	}

	info, lerr := os.Lstat(abs)
	if lerr != nil {
		return "", lerr
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return "", err
	}

	parent, perr := filepath.EvalSymlinks(filepath.Dir(abs))
	if perr != nil {
		return "", perr
	}
	return filepath.Join(parent, filepath.Base(abs)), nil
}

// IsProtectedPath checks if path is, or lies under, one of the protected
// system paths.
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)

	// Hard block: "/" exact
	if p == string(os.PathSeparator) {
		return true
	}

	for _, prot := range protected {
		if hasPathPrefix(p, prot) {
			return true
		}
	}
	return false
}

// location is where the final path element itself lives: the real parent
// directory joined with the unresolved name.
func location(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return abs
	}
	return filepath.Join(parent, filepath.Base(abs))
}

// hasPathPrefix checks if path equals prefix or is a descendant of it
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if prefix == string(os.PathSeparator) {
		return true
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

// defaultProtected returns system locations no sweep may ever touch, even if
// a base directory were misconfigured to sit above them.
func defaultProtected(extra []string) []string {
	base := []string{
		"/System",
		"/bin",
		"/sbin",
		"/usr",
		"/etc",
		"/private/etc",
		"/private/var/db",
		"/Applications",
	}
	return append(base, extra...)
}
