package pagestore

import (
	"context"
	"fmt"
	"sync"

	messagevault "github.com/perokvist/messageVault"
)

// MemoryStore is an in-memory Store implementation. It is the reference
// implementation of the Store contract used by the engine's own tests,
// and is safe for concurrent use. Grounded on the teacher's
// blobstore.MemoryStore.
type MemoryStore struct {
	mu            sync.RWMutex
	data          []byte
	pageSize      uint32
	maxCommitSize uint32

	// writesPerPage counts WritePages calls touching each page index,
	// for tests that assert a fully-committed page is never rewritten.
	writesPerPage map[uint64]int
}

// NewMemoryStore creates a new in-memory page store.
func NewMemoryStore(pageSize, maxCommitSize uint32) *MemoryStore {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if maxCommitSize == 0 {
		maxCommitSize = DefaultMaxCommitSize
	}
	return &MemoryStore{
		pageSize:      pageSize,
		maxCommitSize: maxCommitSize,
		writesPerPage: make(map[uint64]int),
	}
}

func (m *MemoryStore) PageSize() uint32      { return m.pageSize }
func (m *MemoryStore) MaxCommitSize() uint32 { return m.maxCommitSize }

func (m *MemoryStore) Init(_ context.Context) error { return nil }

func (m *MemoryStore) Size(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.data)), nil
}

func (m *MemoryStore) EnsureSize(_ context.Context, n uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := roundUpToPage(n, m.pageSize)
	if target <= uint64(len(m.data)) {
		return nil
	}
	grown := make([]byte, target)
	copy(grown, m.data)
	m.data = grown
	return nil
}

func (m *MemoryStore) WritePages(_ context.Context, src []byte, offset uint64) error {
	p := uint64(m.pageSize)
	if offset%p != 0 {
		return fmt.Errorf("%w: write offset %d not page-aligned (page size %d)", messagevault.ErrInvalidArgument, offset, p)
	}
	if uint64(len(src))%p != 0 {
		return fmt.Errorf("%w: write length %d not page-aligned (page size %d)", messagevault.ErrInvalidArgument, len(src), p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	end := offset + uint64(len(src))
	if end > uint64(len(m.data)) {
		return fmt.Errorf("%w: write range [%d,%d) exceeds physical size %d", messagevault.ErrInvalidArgument, offset, end, len(m.data))
	}
	copy(m.data[offset:end], src)

	for pageOff := offset; pageOff < end; pageOff += p {
		m.writesPerPage[pageOff/p]++
	}
	return nil
}

func (m *MemoryStore) ReadRange(_ context.Context, dst []byte, offset uint64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	end := offset + uint64(len(dst))
	if end > uint64(len(m.data)) {
		return fmt.Errorf("%w: read range [%d,%d) exceeds physical size %d", messagevault.ErrInvalidArgument, offset, end, len(m.data))
	}
	copy(dst, m.data[offset:end])
	return nil
}

// WriteCountForPage returns how many times the page at the given page
// index has been written, for tests verifying single-page-aligned commits.
func (m *MemoryStore) WriteCountForPage(pageIndex uint64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writesPerPage[pageIndex]
}
