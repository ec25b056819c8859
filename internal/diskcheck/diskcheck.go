package diskcheck

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Probe answers mount and free-space questions for local paths.
type Probe struct{}

// Mounted reports whether path sits on a different filesystem than its
// parent directory, distinguishing a real mount point from an empty
// placeholder directory left behind on the root filesystem.
func (Probe) Mounted(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	parent := filepath.Dir(path)
	if parent == path {
		// Filesystem root is always a mount.
		return true, nil
	}

	var parentSt unix.Stat_t
	if err := unix.Stat(parent, &parentSt); err != nil {
		return false, fmt.Errorf("stat %s: %w", parent, err)
	}
	return st.Dev != parentSt.Dev, nil
}

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem containing path.
func (Probe) FreeSpace(path string) (uint64, error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return fs.Bavail * uint64(fs.Bsize), nil
}
