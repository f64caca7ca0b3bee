package cleanup

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cachesweep/internal/fsops"
)

func TestDeleteFile(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a.cache")
	sparseFile(t, target, 4096)

	stats, err := NewSafeDeleter(nil, testLogger()).Delete(base, target, false)
	require.NoError(t, err)
	assert.Equal(t, CleanStats{BytesFreed: 4096, FilesDeleted: 1}, stats)
	assert.NoFileExists(t, target)
}

func TestDeleteDirectory(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "com.example.app")
	sparseFile(t, filepath.Join(dir, "one"), 1000)
	sparseFile(t, filepath.Join(dir, "nested", "two"), 2000)

	stats, err := NewSafeDeleter(nil, testLogger()).Delete(base, dir, false)
	require.NoError(t, err)
	assert.Equal(t, CleanStats{BytesFreed: 3000, DirsDeleted: 1}, stats)
	assert.NoDirExists(t, dir)
}

func TestDeleteSymlinkRemovesLinkOnly(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "data.bin")
	sparseFile(t, target, 8192)
	link := filepath.Join(base, "link")
	require.NoError(t, os.Symlink(target, link))
	linfo, err := os.Lstat(link)
	require.NoError(t, err)

	stats, err := NewSafeDeleter(nil, testLogger()).Delete(base, link, false)
	require.NoError(t, err)
	assert.Equal(t, CleanStats{BytesFreed: uint64(linfo.Size()), FilesDeleted: 1}, stats)

	_, err = os.Lstat(link)
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, target, "symlink target must survive")
}

func TestDeleteOutsideBaseIsNoop(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(t.TempDir(), "precious")
	sparseFile(t, outside, 100)

	stats, err := NewSafeDeleter(nil, testLogger()).Delete(base, outside, false)
	require.NoError(t, err)
	assert.True(t, stats.IsZero())
	assert.FileExists(t, outside)
}

func TestDeleteSymlinkEscapeIsNoop(t *testing.T) {
	base := t.TempDir()
	outsideDir := t.TempDir()
	sparseFile(t, filepath.Join(outsideDir, "precious"), 100)
	link := filepath.Join(base, "escape")
	require.NoError(t, os.Symlink(outsideDir, link))

	fake := &fsops.FakeDeleter{}
	for _, dryRun := range []bool{true, false} {
		stats, err := NewSafeDeleter(fake, testLogger()).Delete(base, link, dryRun)
		require.NoError(t, err)
		assert.True(t, stats.IsZero(), "escape must report nothing (dryRun=%v)", dryRun)
	}
	assert.Empty(t, fake.Calls, "CONTAINMENT VIOLATION: deleter reached for %v", fake.Calls)
	assert.FileExists(t, filepath.Join(outsideDir, "precious"))
}

func TestDeleteMissingTarget(t *testing.T) {
	base := t.TempDir()

	stats, err := NewSafeDeleter(nil, testLogger()).Delete(base, filepath.Join(base, "gone"), false)
	require.NoError(t, err)
	assert.True(t, stats.IsZero())

	stats, err = NewSafeDeleter(nil, testLogger()).Delete(filepath.Join(base, "nobase"), filepath.Join(base, "nobase", "x"), false)
	require.NoError(t, err)
	assert.True(t, stats.IsZero())
}

// TestDryRunNeverDeletes proves the dry-run contract: zero delete calls, and
// the same numbers a real run reports.
func TestDryRunNeverDeletes(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "file1.txt")
	dir := filepath.Join(base, "fulldir")
	sparseFile(t, file, 1024)
	sparseFile(t, filepath.Join(dir, "inner"), 2048)

	fake := &fsops.FakeDeleter{}
	d := NewSafeDeleter(fake, testLogger())

	fileStats, err := d.Delete(base, file, true)
	require.NoError(t, err)
	dirStats, err := d.Delete(base, dir, true)
	require.NoError(t, err)

	if len(fake.Calls) != 0 {
		t.Errorf("DRY-RUN VIOLATION: Expected 0 delete calls, got %d: %v", len(fake.Calls), fake.Calls)
	}
	assert.Equal(t, CleanStats{BytesFreed: 1024, FilesDeleted: 1}, fileStats)
	assert.Equal(t, CleanStats{BytesFreed: 2048, DirsDeleted: 1}, dirStats)
	assert.FileExists(t, file)
	assert.DirExists(t, dir)
}

func TestRealModeCallsDeleter(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "file1.txt")
	dir := filepath.Join(base, "fulldir")
	sparseFile(t, file, 10)
	sparseFile(t, filepath.Join(dir, "inner"), 20)

	fake := &fsops.FakeDeleter{}
	d := NewSafeDeleter(fake, testLogger())
	_, err := d.Delete(base, file, false)
	require.NoError(t, err)
	_, err = d.Delete(base, dir, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"rm:" + file, "rmall:" + dir}, fake.Calls)
}

func TestDeletePermissionDeniedIsReported(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "locked")
	dir := filepath.Join(base, "lockeddir")
	sparseFile(t, file, 10)
	sparseFile(t, filepath.Join(dir, "inner"), 20)

	denied := &fs.PathError{Op: "remove", Path: file, Err: fs.ErrPermission}
	fake := &fsops.FakeDeleter{Fail: map[string]error{file: denied, dir: denied}}
	d := NewSafeDeleter(fake, testLogger())

	stats, err := d.Delete(base, file, false)
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.True(t, stats.IsZero())

	// The subtree is untouched, so nothing is claimed.
	stats, err = d.Delete(base, dir, false)
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.False(t, errors.Is(err, ErrPartialRemoval))
	assert.True(t, stats.IsZero())
}

func TestDeletePartialRemovalReportsPreSize(t *testing.T) {
	skipIfRoot(t)

	base := t.TempDir()
	dir := filepath.Join(base, "mixed")
	sparseFile(t, filepath.Join(dir, "free", "a"), 3000)
	sparseFile(t, filepath.Join(dir, "stuck", "b"), 1000)
	require.NoError(t, os.Chmod(filepath.Join(dir, "stuck"), 0o555))
	t.Cleanup(func() { os.Chmod(filepath.Join(dir, "stuck"), 0o755) })

	stats, err := NewSafeDeleter(nil, testLogger()).Delete(base, dir, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPartialRemoval))
	assert.Equal(t, CleanStats{BytesFreed: 4000, DirsDeleted: 1}, stats)
	assert.NoDirExists(t, filepath.Join(dir, "free"))
}
