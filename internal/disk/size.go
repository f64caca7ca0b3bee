package disk

import (
	"io/fs"
	"path/filepath"
)

// DirectorySize walks path and sums the lstat size of every regular file and
// symlink below it. Symlinked directories are treated as leaves and never
// followed. Unreadable or vanished entries are skipped; a missing or
// unreadable root yields 0.
func DirectorySize(path string) uint64 {
	var total uint64

	filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if d.IsDir() {
			return nil
		}

		t := d.Type()
		if !t.IsRegular() && t&fs.ModeSymlink == 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > 0 {
			total += uint64(info.Size())
		}
		return nil
	})

	return total
}

// Shrinkage returns before-after, floored at zero.
func Shrinkage(before, after uint64) uint64 {
	if after >= before {
		return 0
	}
	return before - after
}
