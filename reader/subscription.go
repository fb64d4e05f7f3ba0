package reader

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/perokvist/messageVault/checkpoint"
	"github.com/perokvist/messageVault/message"
	"github.com/perokvist/messageVault/pagereader"
	"github.com/perokvist/messageVault/pagestore"
)

// subscriptionState names which phase of the loop in spec.md §4.4 is
// currently running, for logging and tests — avoids threading an
// exception-driven control path through the loop body.
type subscriptionState int

const (
	stateReading subscriptionState = iota
	statePolling
	stateBackingOff
)

const (
	pollWhenCaughtUp = 1 * time.Second
	minBackoff       = 20 * time.Second
)

// Subscription streams newly committed messages into a bounded queue.
// Backpressure is cooperative: queueLimit is enforced via a
// golang.org/x/sync/semaphore.Weighted sized to queueLimit, the same
// primitive the teacher's resource.Controller uses to bound concurrent
// background work — here bounding queue depth instead of worker count.
// A slot is acquired before a message is enqueued and released when the
// consumer receives it, so a slow consumer throttles the producer
// without the loop needing to busy-poll queue depth itself.
type Subscription struct {
	ch  chan message.Message
	sem *semaphore.Weighted
}

// Messages returns the channel messages are delivered on. Closed when
// the subscription loop exits, which happens only on cancellation.
// Receiving directly from this channel does not release the message's
// queue slot; only Receive does.
func (s *Subscription) Messages() <-chan message.Message { return s.ch }

// Receive takes the next message, releasing its queue slot so the
// producer may enqueue another. Returns ok=false once the subscription
// has stopped and drained, or when ctx is done.
func (s *Subscription) Receive(ctx context.Context) (message.Message, bool) {
	select {
	case msg, ok := <-s.ch:
		if !ok {
			return message.Message{}, false
		}
		s.sem.Release(1)
		return msg, true
	case <-ctx.Done():
		return message.Message{}, false
	}
}

// Subscribe spawns a background goroutine running the loop described in
// spec.md §4.4: poll the checkpoint, stream newly visible frames
// starting at start into the returned Subscription, and retry
// transient storage errors with a bounded backoff. The goroutine exits
// when ctx is cancelled.
func Subscribe(ctx context.Context, store pagestore.Store, cp checkpoint.Checkpoint, start uint64, bufferSize, queueLimit int, opts ...Option) *Subscription {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	sub := &Subscription{
		ch:  make(chan message.Message, queueLimit),
		sem: semaphore.NewWeighted(int64(queueLimit)),
	}

	go runSubscription(ctx, store, cp, start, bufferSize, o, sub)
	return sub
}

func runSubscription(ctx context.Context, store pagestore.Store, cp checkpoint.Checkpoint, start uint64, bufferSize int, o options, sub *Subscription) {
	defer close(sub.ch)

	position := start
	attempt := 0
	state := stateReading

	for {
		if ctx.Err() != nil {
			o.logger.LogSubscriptionStop(ctx, position)
			return
		}

		switch state {
		case stateReading:
			delivered, err := drainOnce(ctx, store, cp, &position, bufferSize, sub)
			o.metrics.RecordSubscriptionTick(delivered, false)
			if err != nil {
				attempt++
				o.logger.LogSubscriptionBackoff(ctx, position, attempt, err)
				state = stateBackingOff
				continue
			}
			attempt = 0
			state = statePolling

		case statePolling:
			o.metrics.RecordSubscriptionTick(0, false)
			if cancelled := o.clock.Sleep(pollWhenCaughtUp, ctx.Done()); cancelled {
				o.logger.LogSubscriptionStop(ctx, position)
				return
			}
			state = stateReading

		case stateBackingOff:
			o.metrics.RecordSubscriptionTick(0, true)
			if cancelled := o.clock.Sleep(minBackoff, ctx.Done()); cancelled {
				o.logger.LogSubscriptionStop(ctx, position)
				return
			}
			state = stateReading
		}
	}
}

// drainOnce implements step 2 of spec.md §4.4's subscription loop: if
// the checkpoint has advanced past position, stream every newly visible
// frame into the queue, enforcing queueLimit via sub.sem.
func drainOnce(ctx context.Context, store pagestore.Store, cp checkpoint.Checkpoint, position *uint64, bufferSize int, sub *Subscription) (int, error) {
	l, err := cp.Read(ctx)
	if err != nil {
		return 0, err
	}
	if l <= *position {
		return 0, nil
	}

	pr, err := pagereader.New(store, *position, l, make([]byte, bufferSize))
	if err != nil {
		return 0, err
	}
	br := bufio.NewReaderSize(readerAdapter{r: pr, ctx: ctx}, bufferSize)

	delivered := 0
	next := *position
	for next < l {
		msg, rerr := message.Read(br)
		if rerr != nil {
			return delivered, rerr
		}

		if err := sub.sem.Acquire(ctx, 1); err != nil {
			return delivered, fmt.Errorf("subscription cancelled: %w", err)
		}
		select {
		case sub.ch <- msg:
		case <-ctx.Done():
			sub.sem.Release(1)
			return delivered, ctx.Err()
		}

		delivered++
		next = pr.Position() - uint64(br.Buffered())
		*position = next
	}
	return delivered, nil
}
