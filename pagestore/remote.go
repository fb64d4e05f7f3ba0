package pagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	messagevault "github.com/perokvist/messageVault"
)

// objectClient is the minimal surface a cloud object store must expose
// for remoteStore to emulate page-aligned WritePages/ReadRange on top of
// a whole-object API. S3 (blobstore/s3) and MinIO (blobstore/minio) have
// no partial-overwrite primitive, so every WritePages call on a
// remoteStore does a whole-object read-modify-write: download the
// current object, overlay the requested page range in memory, and
// re-upload it in full. This is the documented cost of running
// MessageVault against an object store instead of a local disk — callers
// that flush often should prefer FileStore.
type objectClient interface {
	// headSize returns the object's current size, and false if it does
	// not exist yet.
	headSize(ctx context.Context) (size uint64, exists bool, err error)
	// getAll returns a reader over the full current object.
	getAll(ctx context.Context) (io.ReadCloser, error)
	// putAll replaces the object's content in full.
	putAll(ctx context.Context, body io.Reader, size int64) error
}

// remoteStore implements Store by layering page-aligned semantics over
// an objectClient. Embedded by S3Store and MinioStore.
type remoteStore struct {
	client        objectClient
	pageSize      uint32
	maxCommitSize uint32
}

func newRemoteStore(client objectClient, pageSize, maxCommitSize uint32) remoteStore {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if maxCommitSize == 0 {
		maxCommitSize = DefaultMaxCommitSize
	}
	return remoteStore{client: client, pageSize: pageSize, maxCommitSize: maxCommitSize}
}

func (r *remoteStore) PageSize() uint32      { return r.pageSize }
func (r *remoteStore) MaxCommitSize() uint32 { return r.maxCommitSize }

// Init creates the object with zero length if it doesn't already exist.
func (r *remoteStore) Init(ctx context.Context) error {
	_, exists, err := r.client.headSize(ctx)
	if err != nil {
		return messagevault.WrapStorage("init", err)
	}
	if exists {
		return nil
	}
	if err := r.client.putAll(ctx, bytes.NewReader(nil), 0); err != nil {
		return messagevault.WrapStorage("init", err)
	}
	return nil
}

func (r *remoteStore) Size(ctx context.Context) (uint64, error) {
	size, _, err := r.client.headSize(ctx)
	if err != nil {
		return 0, messagevault.WrapStorage("size", err)
	}
	return size, nil
}

func (r *remoteStore) EnsureSize(ctx context.Context, n uint64) error {
	current, err := r.fetchAll(ctx)
	if err != nil {
		return messagevault.WrapStorage("ensure_size", err)
	}
	target := roundUpToPage(n, r.pageSize)
	if uint64(len(current)) >= target {
		return nil
	}
	grown := make([]byte, target)
	copy(grown, current)
	if err := r.client.putAll(ctx, bytes.NewReader(grown), int64(len(grown))); err != nil {
		return messagevault.WrapStorage("ensure_size", err)
	}
	return nil
}

func (r *remoteStore) WritePages(ctx context.Context, src []byte, offset uint64) error {
	p := uint64(r.pageSize)
	if offset%p != 0 {
		return fmt.Errorf("%w: write offset %d not page-aligned (page size %d)", messagevault.ErrInvalidArgument, offset, p)
	}
	if uint64(len(src))%p != 0 {
		return fmt.Errorf("%w: write length %d not page-aligned (page size %d)", messagevault.ErrInvalidArgument, len(src), p)
	}

	current, err := r.fetchAll(ctx)
	if err != nil {
		return messagevault.WrapStorage("write_pages", err)
	}
	end := offset + uint64(len(src))
	if end > uint64(len(current)) {
		return fmt.Errorf("%w: write range [%d,%d) exceeds physical size %d", messagevault.ErrInvalidArgument, offset, end, len(current))
	}
	copy(current[offset:end], src)

	if err := r.client.putAll(ctx, bytes.NewReader(current), int64(len(current))); err != nil {
		return messagevault.WrapStorage("write_pages", err)
	}
	return nil
}

func (r *remoteStore) ReadRange(ctx context.Context, dst []byte, offset uint64) error {
	current, err := r.fetchAll(ctx)
	if err != nil {
		return messagevault.WrapStorage("read_range", err)
	}
	end := offset + uint64(len(dst))
	if end > uint64(len(current)) {
		return fmt.Errorf("%w: read range [%d,%d) exceeds physical size %d", messagevault.ErrInvalidArgument, offset, end, len(current))
	}
	copy(dst, current[offset:end])
	return nil
}

func (r *remoteStore) fetchAll(ctx context.Context) ([]byte, error) {
	body, err := r.client.getAll(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()
	return io.ReadAll(body)
}
