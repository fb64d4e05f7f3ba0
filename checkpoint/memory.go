package checkpoint

import (
	"context"
	"sync"
)

// MemoryCheckpoint is an in-memory Checkpoint, used by tests and the
// MemoryStore-backed configuration.
type MemoryCheckpoint struct {
	mu    sync.Mutex
	value uint64
}

// NewMemoryCheckpoint creates a checkpoint starting at 0.
func NewMemoryCheckpoint() *MemoryCheckpoint {
	return &MemoryCheckpoint{}
}

func (c *MemoryCheckpoint) Read(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, nil
}

func (c *MemoryCheckpoint) GetOrInit(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, nil
}

func (c *MemoryCheckpoint) Update(_ context.Context, n uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > c.value {
		c.value = n
	}
	return nil
}
