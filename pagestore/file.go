package pagestore

import (
	"context"
	"fmt"
	"os"
	"sync"

	messagevault "github.com/perokvist/messageVault"
)

// FileStore is a local-disk Store backed by a single os.File, using
// page-aligned ReadAt/WriteAt. Growth preallocates pages via
// growFile (platform-specific; see file_unix.go / file_other.go),
// mirroring the teacher's internal/mmap os_unix.go/os_windows.go split.
type FileStore struct {
	mu            sync.Mutex
	file          *os.File
	path          string
	pageSize      uint32
	maxCommitSize uint32
}

// NewFileStore creates a local-disk page store rooted at path. The file
// is not opened until Init is called.
func NewFileStore(path string, pageSize, maxCommitSize uint32) *FileStore {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if maxCommitSize == 0 {
		maxCommitSize = DefaultMaxCommitSize
	}
	return &FileStore{path: path, pageSize: pageSize, maxCommitSize: maxCommitSize}
}

func (f *FileStore) PageSize() uint32      { return f.pageSize }
func (f *FileStore) MaxCommitSize() uint32 { return f.maxCommitSize }

// Init idempotently opens (creating if necessary) the backing file.
func (f *FileStore) Init(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file != nil {
		return nil
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_RDWR, 0600) //nolint:gosec // G304: path is configurable by the caller
	if err != nil {
		return messagevault.WrapStorage("init", err)
	}
	f.file = file
	return nil
}

func (f *FileStore) Size(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return 0, messagevault.ErrInvalidState
	}
	info, err := f.file.Stat()
	if err != nil {
		return 0, messagevault.WrapStorage("stat", err)
	}
	return uint64(info.Size()), nil
}

func (f *FileStore) EnsureSize(_ context.Context, n uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return messagevault.ErrInvalidState
	}
	info, err := f.file.Stat()
	if err != nil {
		return messagevault.WrapStorage("stat", err)
	}
	target := roundUpToPage(n, f.pageSize)
	if uint64(info.Size()) >= target {
		return nil
	}
	if err := growFile(f.file, target); err != nil {
		return messagevault.WrapStorage("ensure_size", err)
	}
	return nil
}

func (f *FileStore) WritePages(_ context.Context, src []byte, offset uint64) error {
	p := uint64(f.pageSize)
	if offset%p != 0 {
		return fmt.Errorf("%w: write offset %d not page-aligned (page size %d)", messagevault.ErrInvalidArgument, offset, p)
	}
	if uint64(len(src))%p != 0 {
		return fmt.Errorf("%w: write length %d not page-aligned (page size %d)", messagevault.ErrInvalidArgument, len(src), p)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return messagevault.ErrInvalidState
	}
	if _, err := f.file.WriteAt(src, int64(offset)); err != nil {
		return messagevault.WrapStorage("write_pages", err)
	}
	return nil
}

func (f *FileStore) ReadRange(_ context.Context, dst []byte, offset uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return messagevault.ErrInvalidState
	}
	if _, err := f.file.ReadAt(dst, int64(offset)); err != nil {
		return messagevault.WrapStorage("read_range", err)
	}
	return nil
}

// Close closes the underlying file handle.
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
