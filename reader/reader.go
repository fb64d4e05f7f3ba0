// Package reader implements the Reader façade and subscription loop
// from spec.md §4.4: bounded batch reads over a committed interval, an
// async read that waits for new data, and a live-tailing subscription
// that streams newly committed messages into a bounded queue. Grounded
// on the teacher's synchronous read path plus resource.Controller's
// semaphore-based backpressure, generalized from memory limits to queue
// depth.
package reader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	messagevault "github.com/perokvist/messageVault"
	"github.com/perokvist/messageVault/checkpoint"
	"github.com/perokvist/messageVault/message"
	"github.com/perokvist/messageVault/pagereader"
	"github.com/perokvist/messageVault/pagestore"
)

// pollInterval is how often read_async re-checks the checkpoint while
// waiting for L to advance past the caller's from position.
const pollInterval = 1 * time.Second

// Reader is a read-only façade over a store and checkpoint. Unlike the
// Writer, many Readers may be active concurrently against the same log;
// each owns its own buffer.
type Reader struct {
	store      pagestore.Store
	checkpoint checkpoint.Checkpoint
	opts       options
	bufferSize int
}

// New constructs a Reader. bufferSize is the Page-Prefetching Reader
// capacity used by Read; it must be at least as large as the largest
// expected framed message.
func New(store pagestore.Store, cp checkpoint.Checkpoint, bufferSize int, opts ...Option) *Reader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Reader{store: store, checkpoint: cp, opts: o, bufferSize: bufferSize}
}

// Position returns the checkpoint's current committed length L.
func (r *Reader) Position(ctx context.Context) (uint64, error) {
	l, err := r.checkpoint.Read(ctx)
	if err != nil {
		return 0, messagevault.WrapStorage("position", err)
	}
	return l, nil
}

// Read decodes up to maxCount messages from [from, till), stopping when
// either maxCount frames have been decoded or the window is exhausted.
// nextPosition is the offset immediately after the last decoded frame,
// or from if none were decoded.
func (r *Reader) Read(ctx context.Context, from, till uint64, maxCount int) ([]message.Message, uint64, error) {
	started := time.Now()
	var err error
	var msgs []message.Message
	defer func() { r.opts.metrics.RecordRead(len(msgs), time.Since(started), err) }()

	if till < from {
		err = fmt.Errorf("%w: till %d < from %d", messagevault.ErrInvalidArgument, till, from)
		return nil, from, err
	}
	if maxCount < 1 {
		err = fmt.Errorf("%w: max_count must be >= 1", messagevault.ErrInvalidArgument)
		return nil, from, err
	}
	if till == from {
		return nil, from, nil
	}

	pr, perr := pagereader.New(r.store, from, till, make([]byte, r.bufferSize))
	if perr != nil {
		err = perr
		return nil, from, err
	}

	br := bufio.NewReaderSize(readerAdapter{r: pr, ctx: ctx}, r.bufferSize)
	next := from
	for len(msgs) < maxCount && next < till {
		msg, rerr := message.Read(br)
		if rerr != nil {
			err = rerr
			return nil, from, err
		}
		msgs = append(msgs, msg)
		next = pr.Position() - uint64(br.Buffered())
	}

	r.opts.logger.LogRead(ctx, from, next, len(msgs), nil)
	return msgs, next, nil
}

// ReadAsync polls the checkpoint until it advances past from (bounded
// sleeps, cancellable), then delegates to Read(from, L, maxCount).
func (r *Reader) ReadAsync(ctx context.Context, from uint64, maxCount int) ([]message.Message, uint64, error) {
	for {
		l, err := r.Position(ctx)
		if err != nil {
			return nil, from, err
		}
		if l < from {
			return nil, from, messagevault.ErrInvalidState
		}
		if l > from {
			return r.Read(ctx, from, l, maxCount)
		}

		select {
		case <-ctx.Done():
			return nil, from, fmt.Errorf("%w: %v", messagevault.ErrCancelled, ctx.Err())
		default:
		}
		cancelled := r.opts.clock.Sleep(pollInterval, ctx.Done())
		if cancelled {
			return nil, from, fmt.Errorf("%w: %v", messagevault.ErrCancelled, ctx.Err())
		}
	}
}

// readerAdapter adapts pagereader.Reader's (ctx, dst, n)-shaped Read to
// the standard io.Reader interface expected by message.Read.
type readerAdapter struct {
	r   *pagereader.Reader
	ctx context.Context
}

func (a readerAdapter) Read(p []byte) (int, error) {
	n, err := a.r.Read(a.ctx, p, len(p))
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
