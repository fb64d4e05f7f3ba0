package checkpoint

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileCheckpoint is a local-disk Checkpoint. Updates are written to a
// temp file in the same directory and renamed into place, the same
// atomic-publish pattern the teacher's manifest.Store uses for its
// CURRENT pointer — a rename is the only operation local filesystems
// guarantee to be atomic.
type FileCheckpoint struct {
	mu   sync.Mutex
	path string
}

// NewFileCheckpoint creates a checkpoint persisted at path.
func NewFileCheckpoint(path string) *FileCheckpoint {
	return &FileCheckpoint{path: path}
}

func (c *FileCheckpoint) Read(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLocked()
}

func (c *FileCheckpoint) GetOrInit(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, err := c.readLocked()
	if err != nil {
		return 0, err
	}
	if _, statErr := os.Stat(c.path); os.IsNotExist(statErr) {
		if err := c.writeLocked(0); err != nil {
			return 0, err
		}
	}
	return value, nil
}

func (c *FileCheckpoint) Update(_ context.Context, n uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.readLocked()
	if err != nil {
		return err
	}
	if n <= current {
		return nil
	}
	return c.writeLocked(n)
}

func (c *FileCheckpoint) readLocked() (uint64, error) {
	data, err := os.ReadFile(c.path) //nolint:gosec // G304: path is configurable by the caller
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("checkpoint file %s: corrupt length %d", c.path, len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

func (c *FileCheckpoint) writeLocked(n uint64) error {
	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	if _, err := tmp.Write(buf[:]); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, c.path)
}
