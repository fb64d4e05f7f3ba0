// Package writer implements the Writer described in spec.md §4.3: a
// buffered, page-aligned appender that frames messages into a RAM
// buffer, flushes whole pages to a pagestore.Store, and advances a
// checkpoint.Checkpoint only after the pages backing a batch are
// durable. Grounded on the teacher's synchronous write path (no
// background flush goroutine) plus resource.Controller's IO throttle.
package writer

import (
	"context"
	"fmt"
	"sync"
	"time"

	messagevault "github.com/perokvist/messageVault"
	"github.com/perokvist/messageVault/checkpoint"
	"github.com/perokvist/messageVault/message"
	"github.com/perokvist/messageVault/pagestore"
)

type state int

const (
	stateUninitialized state = iota
	stateReady
	stateClosed
)

// AppendMessage is a single message passed to Append, prior to framing.
type AppendMessage struct {
	Contract string
	Payload  []byte
}

// Writer is the sole writer of a message stream. At most one Writer may
// be active against a given store/checkpoint pair at a time (spec.md
// §5); this package does not enforce mutual exclusion across processes.
type Writer struct {
	mu sync.Mutex

	store      pagestore.Store
	checkpoint checkpoint.Checkpoint
	opts       options

	pageSize uint32
	capacity int

	state    state
	buf      []byte
	cursor   int    // write position within buf
	tailBase uint64 // L - (L mod P) as of the last flush
	l        uint64 // in-memory committed length, equals checkpoint value
}

// Open binds store and cp, runs spec.md §4.3's initialization sequence
// (idempotent storage init, checkpoint read, tail reload), and returns a
// Writer in the Ready state.
func Open(ctx context.Context, store pagestore.Store, cp checkpoint.Checkpoint, opts ...Option) (*Writer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	w := &Writer{
		store:      store,
		checkpoint: cp,
		opts:       o,
		pageSize:   store.PageSize(),
		capacity:   int(store.MaxCommitSize()),
		state:      stateUninitialized,
	}
	w.buf = make([]byte, w.capacity)

	if err := store.Init(ctx); err != nil {
		return nil, messagevault.WrapStorage("writer_init", err)
	}
	l, err := cp.GetOrInit(ctx)
	if err != nil {
		return nil, messagevault.WrapStorage("writer_init", err)
	}

	if err := w.loadTail(ctx, l); err != nil {
		return nil, err
	}

	w.l = l
	w.state = stateReady
	return w, nil
}

// loadTail implements step 3 of spec.md §4.3's initialization: reload
// the partially-filled last page, if any, as the preserved tail.
func (w *Writer) loadTail(ctx context.Context, l uint64) error {
	p := uint64(w.pageSize)
	t := l % p
	w.tailBase = l - t
	if t == 0 {
		w.cursor = 0
		return nil
	}

	size, err := w.store.Size(ctx)
	if err != nil {
		return messagevault.WrapStorage("writer_init", err)
	}
	if size < w.tailBase+p {
		if err := w.store.EnsureSize(ctx, w.tailBase+p); err != nil {
			return messagevault.WrapStorage("writer_init", err)
		}
	}

	page := make([]byte, p)
	if err := w.store.ReadRange(ctx, page, w.tailBase); err != nil {
		return messagevault.WrapStorage("writer_init", err)
	}
	copy(w.buf, page[:t])
	w.cursor = int(t)
	return nil
}

// Position returns the in-memory committed length L.
func (w *Writer) Position() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.l
}

// Append frames each message into the write buffer, flushing ahead of
// any message that would overflow the buffer, then flushes the tail
// and advances the checkpoint. It returns the new committed length.
// messages must be non-empty.
func (w *Writer) Append(ctx context.Context, messages ...AppendMessage) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	count := len(messages)
	started := time.Now()
	var err error
	defer func() { w.opts.metrics.RecordAppend(count, time.Since(started), err) }()

	if w.state != stateReady {
		err = messagevault.ErrInvalidState
		return 0, err
	}
	if len(messages) == 0 {
		err = fmt.Errorf("%w: append requires at least one message", messagevault.ErrInvalidArgument)
		return 0, err
	}

	for _, msg := range messages {
		if verr := message.Validate(msg.Contract, msg.Payload); verr != nil {
			err = verr
			return 0, err
		}
	}

	for _, msg := range messages {
		size := message.EstimateSize(msg.Contract, msg.Payload)
		if size > w.capacity-w.cursor {
			if ferr := w.flushLocked(ctx); ferr != nil {
				err = ferr
				return 0, err
			}
		}
		if size > w.capacity-w.cursor {
			err = fmt.Errorf("%w: message of %d bytes exceeds buffer capacity %d", messagevault.ErrInvalidArgument, size, w.capacity)
			return 0, err
		}

		offset := w.virtualPosition()
		id := message.NewID(offset, w.opts.clock.Now())
		if werr := w.frameInto(id, msg.Contract, msg.Payload); werr != nil {
			err = werr
			return 0, err
		}
	}

	if ferr := w.flushLocked(ctx); ferr != nil {
		err = ferr
		return 0, err
	}
	if uerr := w.checkpoint.Update(ctx, w.l); uerr != nil {
		err = messagevault.WrapStorage("checkpoint_update", uerr)
		return 0, err
	}

	w.opts.logger.LogAppend(ctx, count, w.l, nil)
	return w.l, nil
}

// virtualPosition is tail_base + cursor: the logical offset the next
// byte written into the buffer will occupy.
func (w *Writer) virtualPosition() uint64 {
	return w.tailBase + uint64(w.cursor)
}

// frameInto writes a single message frame into buf starting at cursor.
func (w *Writer) frameInto(id message.ID, contract string, payload []byte) error {
	sw := &sliceWriter{buf: w.buf, pos: w.cursor}
	if err := message.Write(sw, id, contract, payload); err != nil {
		return err
	}
	w.cursor = sw.pos
	return nil
}

// Flush persists buffered pages to storage and advances the checkpoint,
// without requiring a subsequent Append. Exposed for explicit-commit
// callers described in spec.md's data-flow overview.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != stateReady {
		return messagevault.ErrInvalidState
	}
	if err := w.flushLocked(ctx); err != nil {
		return err
	}
	return w.checkpoint.Update(ctx, w.l)
}

// flushLocked implements spec.md §4.3's Flush operation. Caller holds w.mu.
func (w *Writer) flushLocked(ctx context.Context) error {
	p := uint64(w.pageSize)
	bytesInBuffer := w.cursor
	newL := w.virtualPosition()

	started := time.Now()
	var err error
	var pagesWritten int
	defer func() { w.opts.metrics.RecordFlush(pagesWritten, time.Since(started), err) }()

	if bytesInBuffer == 0 {
		w.l = newL
		return nil
	}

	fullPagesSize := roundUp(newL, p)
	if serr := w.store.EnsureSize(ctx, fullPagesSize); serr != nil {
		err = messagevault.WrapStorage("flush", serr)
		return err
	}

	pagesToWrite := int(roundUp(uint64(bytesInBuffer), p))
	if w.opts.ioLimiter != nil {
		if lerr := w.opts.ioLimiter.WaitN(ctx, pagesToWrite); lerr != nil {
			err = fmt.Errorf("%w: io limiter: %v", messagevault.ErrCancelled, lerr)
			return err
		}
	}
	if werr := w.store.WritePages(ctx, w.buf[:pagesToWrite], w.tailBase); werr != nil {
		err = messagevault.WrapStorage("flush", werr)
		return err
	}
	pagesWritten = pagesToWrite / int(p)

	w.l = newL
	w.opts.logger.LogFlush(ctx, pagesWritten, w.tailBase, nil)

	newTail := uint64(bytesInBuffer) % p
	if uint64(bytesInBuffer) >= p {
		lastPageStart := uint64(bytesInBuffer) - newTail
		copy(w.buf[0:p], w.buf[lastPageStart:lastPageStart+p])
		w.cursor = int(newTail)
		w.tailBase = newL - newTail
	}
	// bytesInBuffer < P: buffer untouched, cursor unchanged, tailBase unchanged.
	return nil
}

// Close transitions the Writer to Closed, releasing its storage and
// checkpoint handles (each is closed if it implements Close() error; the
// first error is returned). Subsequent operations fail with
// ErrInvalidState.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == stateClosed {
		return nil
	}
	w.state = stateClosed
	var err error
	if closer, ok := w.store.(interface{ Close() error }); ok {
		err = closer.Close()
	}
	if closer, ok := w.checkpoint.(interface{ Close() error }); ok {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func roundUp(n, unit uint64) uint64 {
	if n%unit == 0 {
		return n
	}
	return (n/unit + 1) * unit
}

// sliceWriter is an io.Writer over a fixed backing array, used to frame
// a message directly into the writer's buffer without an intermediate
// allocation.
type sliceWriter struct {
	buf []byte
	pos int
}

func (s *sliceWriter) Write(p []byte) (int, error) {
	n := copy(s.buf[s.pos:], p)
	s.pos += n
	if n < len(p) {
		return n, fmt.Errorf("%w: write exceeds buffer bounds", messagevault.ErrInvalidState)
	}
	return n, nil
}
