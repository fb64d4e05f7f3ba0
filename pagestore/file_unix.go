//go:build unix

package pagestore

import (
	"os"

	"golang.org/x/sys/unix"
)

// growFile preallocates the file to size bytes using Fallocate, falling
// back to Truncate if the filesystem doesn't support it. Mirrors the
// teacher's internal/mmap os_unix.go growth path.
func growFile(f *os.File, size uint64) error {
	err := unix.Fallocate(int(f.Fd()), 0, 0, int64(size))
	if err == nil {
		return nil
	}
	if err == unix.EOPNOTSUPP || err == unix.ENOSYS {
		return f.Truncate(int64(size))
	}
	return err
}
