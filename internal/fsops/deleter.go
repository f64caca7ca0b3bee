package fsops

import "os"

// Deleter abstracts filesystem delete operations so tests can prove that a
// dry run never reaches the filesystem.
type Deleter interface {
	// Remove unlinks a file, symlink or empty directory. Symlinks are never followed.
	Remove(path string) error
	// RemoveAll removes a directory subtree.
	RemoveAll(path string) error
}

// OS is the Deleter backed by the os package. os.Remove operates on the
// link itself when path is a symlink.
var OS Deleter = osDeleter{}

type osDeleter struct{}

func (osDeleter) Remove(path string) error    { return os.Remove(path) }
func (osDeleter) RemoveAll(path string) error { return os.RemoveAll(path) }
