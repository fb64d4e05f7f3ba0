//go:build !unix

package pagestore

import "os"

// growFile preallocates the file to size bytes. Platforms without
// Fallocate fall back to a plain truncate; this still guarantees the
// required physical size, just without the allocation hint.
func growFile(f *os.File, size uint64) error {
	return f.Truncate(int64(size))
}
