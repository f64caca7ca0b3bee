package safety

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestProtectedPathBlocking verifies system paths are blocked
func TestProtectedPathBlocking(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"root slash", "/", true},
		{"system", "/System", true},
		{"system library", "/System/Library/CoreServices", true},
		{"usr", "/usr", true},
		{"usr local", "/usr/local/bin", true},
		{"bin", "/bin/sh", true},
		{"private etc", "/private/etc/hosts", true},
		{"applications", "/Applications/Safari.app", true},
		{"user caches", "/Users/alice/Library/Caches", false},
		{"user trash", "/Users/alice/.Trash", false},
		{"volumes trash", "/Volumes/USB/.Trashes/501", false},
		{"tmp", "/tmp/file.txt", false},
		{"prefix lookalike", "/usrdata/file", false},
	}

	protected := defaultProtected(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsProtectedPath(tt.path, protected)
			if result != tt.expected {
				t.Errorf("IsProtectedPath(%s) = %v, expected %v", tt.path, result, tt.expected)
			}
		})
	}
}

// TestIsWithinContainment covers descendants, escapes and vanished targets
func TestIsWithinContainment(t *testing.T) {
	tmpDir := t.TempDir()
	baseDir := filepath.Join(tmpDir, "base")
	outsideDir := filepath.Join(tmpDir, "outside")

	for _, d := range []string{baseDir, outsideDir, filepath.Join(baseDir, "sub")} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("Failed to create dir %s: %v", d, err)
		}
	}

	insideFile := filepath.Join(baseDir, "sub", "inside.txt")
	if err := os.WriteFile(insideFile, []byte("inside"), 0644); err != nil {
		t.Fatalf("Failed to create inside file: %v", err)
	}
	outsideFile := filepath.Join(outsideDir, "keep.txt")
	if err := os.WriteFile(outsideFile, []byte("keep"), 0644); err != nil {
		t.Fatalf("Failed to create outside file: %v", err)
	}

	linkToOutsideFile := filepath.Join(baseDir, "link_file")
	if err := os.Symlink(outsideFile, linkToOutsideFile); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	linkToOutsideDir := filepath.Join(baseDir, "link_dir")
	if err := os.Symlink(outsideDir, linkToOutsideDir); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	linkToRoot := filepath.Join(baseDir, "link_root")
	if err := os.Symlink("/", linkToRoot); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	linkInside := filepath.Join(baseDir, "link_inside")
	if err := os.Symlink(insideFile, linkInside); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}
	dangling := filepath.Join(baseDir, "dangling")
	if err := os.Symlink(filepath.Join(tmpDir, "never-existed"), dangling); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name     string
		target   string
		expected bool
	}{
		{"base itself", baseDir, true},
		{"file inside", insideFile, true},
		{"subdir inside", filepath.Join(baseDir, "sub"), true},
		{"symlink staying inside", linkInside, true},
		{"dangling symlink inside", dangling, true},
		{"file outside", outsideFile, false},
		{"symlink to outside file", linkToOutsideFile, false},
		{"path through symlinked dir", filepath.Join(linkToOutsideDir, "keep.txt"), false},
		{"symlink to root", linkToRoot, false},
		{"dotdot escape", filepath.Join(baseDir, "..", "outside", "keep.txt"), false},
		{"vanished target", filepath.Join(baseDir, "gone"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsWithin(baseDir, tt.target)
			if result != tt.expected {
				t.Errorf("IsWithin(%s, %s) = %v, expected %v", baseDir, tt.target, result, tt.expected)
			}
		})
	}
}

// TestGuardCheckErrors verifies the typed errors behind IsWithin
func TestGuardCheckErrors(t *testing.T) {
	tmpDir := t.TempDir()
	baseDir := filepath.Join(tmpDir, "base")
	outsideDir := filepath.Join(tmpDir, "outside")
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		t.Fatalf("Failed to create base dir: %v", err)
	}
	if err := os.MkdirAll(outsideDir, 0755); err != nil {
		t.Fatalf("Failed to create outside dir: %v", err)
	}
	outsideFile := filepath.Join(outsideDir, "keep.txt")
	if err := os.WriteFile(outsideFile, []byte("keep"), 0644); err != nil {
		t.Fatalf("Failed to create outside file: %v", err)
	}
	escapingLink := filepath.Join(baseDir, "escape")
	if err := os.Symlink(outsideFile, escapingLink); err != nil {
		t.Fatalf("Failed to create escaping symlink: %v", err)
	}

	guard, err := NewGuard(baseDir)
	if err != nil {
		t.Fatalf("NewGuard failed: %v", err)
	}

	tests := []struct {
		name        string
		path        string
		expectError error
	}{
		{"outside base", outsideFile, ErrOutsideBase},
		{"escaping symlink", escapingLink, ErrSymlinkEscape},
		{"vanished", filepath.Join(baseDir, "missing"), ErrVanished},
		{"empty path", "", ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Check(tt.path)
			if !errors.Is(err, tt.expectError) {
				t.Errorf("Check(%s) = %v, expected %v", tt.path, err, tt.expectError)
			}
		})
	}
}

// TestNewGuardMissingBase verifies an absent base cannot anchor a sweep
func TestNewGuardMissingBase(t *testing.T) {
	if _, err := NewGuard(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("NewGuard on a missing base should fail")
	}
	if IsWithin(filepath.Join(t.TempDir(), "absent"), "/tmp") {
		t.Error("IsWithin with a missing base must be false")
	}
}

// TestHasPathPrefix verifies the path prefix checking logic
func TestHasPathPrefix(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		prefix   string
		expected bool
	}{
		{"exact match", "/tmp/base", "/tmp/base", true},
		{"subdirectory", "/tmp/base/sub", "/tmp/base", true},
		{"not a prefix", "/tmp/other", "/tmp/base", false},
		{"partial match", "/tmp/baseother", "/tmp/base", false},
		{"root prefix", "/tmp", "/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := hasPathPrefix(tt.path, tt.prefix)
			if result != tt.expected {
				t.Errorf("hasPathPrefix(%s, %s) = %v, expected %v", tt.path, tt.prefix, result, tt.expected)
			}
		})
	}
}
