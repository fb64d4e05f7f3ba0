// Package pagereader implements the Page-Prefetching Reader from
// spec.md §4.2: a forward-only, non-seekable byte-stream view over a
// bounded interval of a pagestore.Store, backed by a caller-sized
// sliding window that compacts and refills on demand. Grounded on the
// teacher's streaming read path in blobstore (ranged Blob.ReadRange),
// generalized from "read a range of an object" to "stream a bounded
// interval through a fixed buffer".
package pagereader

import (
	"context"
	"fmt"

	messagevault "github.com/perokvist/messageVault"
	"github.com/perokvist/messageVault/pagestore"
)

// Reader streams bytes from [start, max) of a pagestore.Store through a
// fixed-capacity in-memory window. It is not seekable and not writable;
// Read only moves forward.
type Reader struct {
	store    pagestore.Store
	max      uint64
	position uint64

	buf       []byte
	remaining int // unread bytes at the head of buf
}

// New constructs a Reader over [start, max) of store, using buf as the
// sliding window. len(buf) is the window's capacity C; it must be at
// least as large as the biggest single Read request the caller intends
// to make, or that call fails with ErrBufferTooSmall.
func New(store pagestore.Store, start, max uint64, buf []byte) (*Reader, error) {
	if max < start {
		return nil, fmt.Errorf("%w: max %d < start %d", messagevault.ErrInvalidArgument, max, start)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("%w: buffer must be non-empty", messagevault.ErrInvalidArgument)
	}
	return &Reader{store: store, max: max, position: start, buf: buf}, nil
}

// Position returns the current logical read position.
func (r *Reader) Position() uint64 { return r.position }

// Read copies up to n bytes into dst (len(dst) must be >= n) starting at
// the current logical position, advancing it by the number of bytes
// returned. It returns 0, nil iff the reader has reached max. It never
// reads past max, and fails with ErrBufferTooSmall if n exceeds the
// window's capacity.
func (r *Reader) Read(ctx context.Context, dst []byte, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative read size %d", messagevault.ErrInvalidArgument, n)
	}
	if n == 0 {
		return 0, nil
	}
	if len(dst) < n {
		return 0, fmt.Errorf("%w: destination shorter than requested read", messagevault.ErrInvalidArgument)
	}
	if r.position >= r.max {
		return 0, nil
	}

	remainingInStream := r.max - r.position
	if uint64(n) > remainingInStream {
		n = int(remainingInStream)
	}

	if n > r.remaining {
		if err := r.refill(ctx, n); err != nil {
			return 0, err
		}
	}

	copy(dst[:n], r.buf[:n])
	r.consume(n)
	r.position += uint64(n)
	return n, nil
}

// refill pulls in enough additional bytes from storage to satisfy a
// request for n bytes, per spec.md §4.2's compact-then-refill algorithm.
// The window is already compacted (consume keeps the unread bytes at the
// head of buf), so new bytes are appended right after them.
func (r *Reader) refill(ctx context.Context, n int) error {
	capacity := len(r.buf)

	downloadFrom := r.position + uint64(r.remaining)
	available := r.max - downloadFrom
	download := capacity - r.remaining
	if uint64(download) > available {
		download = int(available)
	}

	if n > r.remaining+download {
		return fmt.Errorf("%w: requested %d bytes exceeds buffer capacity %d", messagevault.ErrBufferTooSmall, n, capacity)
	}

	dst := make([]byte, download)
	if err := r.store.ReadRange(ctx, dst, downloadFrom); err != nil {
		return messagevault.WrapStorage("pagereader_refill", err)
	}
	copy(r.buf[r.remaining:r.remaining+download], dst)
	r.remaining += download
	return nil
}

// consume discards the first n bytes of the window, shifting the
// remainder to the head (the "compact" step, performed eagerly after
// every read rather than lazily on the next refill).
func (r *Reader) consume(n int) {
	copy(r.buf, r.buf[n:r.remaining])
	r.remaining -= n
}
