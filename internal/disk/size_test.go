package disk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestDirectorySize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.bin"), 100)
	writeFile(t, filepath.Join(root, "sub", "b.bin"), 250)
	writeFile(t, filepath.Join(root, "sub", "deeper", "c.bin"), 50)

	assert.Equal(t, uint64(400), DirectorySize(root))
}

func TestDirectorySizeCountsSymlinkNotTarget(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "huge.bin"), 10000)
	writeFile(t, filepath.Join(root, "small.bin"), 10)

	link := filepath.Join(root, "link")
	require.NoError(t, os.Symlink(outside, link))

	info, err := os.Lstat(link)
	require.NoError(t, err)

	// The symlinked directory is a leaf: only the link's own size counts.
	assert.Equal(t, uint64(10)+uint64(info.Size()), DirectorySize(root))
}

func TestDirectorySizeMissingRoot(t *testing.T) {
	assert.Equal(t, uint64(0), DirectorySize(filepath.Join(t.TempDir(), "nope")))
}

func TestDirectorySizeSkipsUnreadable(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "visible.bin"), 30)
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "hidden.bin"), 70)
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	size := DirectorySize(root)
	assert.LessOrEqual(t, size, uint64(30))
	assert.Equal(t, uint64(30), size)
}

func TestShrinkage(t *testing.T) {
	assert.Equal(t, uint64(70), Shrinkage(100, 30))
	assert.Equal(t, uint64(0), Shrinkage(30, 100))
	assert.Equal(t, uint64(0), Shrinkage(0, 0))
}

func TestIsStaleLocalPath(t *testing.T) {
	assert.False(t, IsStale(t.TempDir(), 0))
	assert.False(t, IsStale(t.TempDir(), 1e9))
	assert.False(t, IsStale(filepath.Join(t.TempDir(), "missing"), 1e9))
}

func TestUsage(t *testing.T) {
	u, err := Usage(t.TempDir())
	require.NoError(t, err)
	assert.Greater(t, u.TotalBytes, uint64(0))
	assert.LessOrEqual(t, u.FreeBytes, u.TotalBytes)
}
