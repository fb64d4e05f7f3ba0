package reader_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	messagevault "github.com/perokvist/messageVault"
	"github.com/perokvist/messageVault/checkpoint"
	"github.com/perokvist/messageVault/message"
	"github.com/perokvist/messageVault/pagestore"
	"github.com/perokvist/messageVault/reader"
	"github.com/perokvist/messageVault/writer"
)

// fastClock never actually sleeps; it only honors cancellation, so
// subscription/read-async tests don't block on the spec's real-world
// poll/backoff durations.
type fastClock struct{}

func (fastClock) Now() time.Time { return time.Unix(1_700_000_000, 0) }
func (fastClock) Sleep(_ time.Duration, done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

func seedLog(t *testing.T, contracts ...string) (*pagestore.MemoryStore, *checkpoint.MemoryCheckpoint) {
	t.Helper()
	store := pagestore.NewMemoryStore(64, 0)
	cp := checkpoint.NewMemoryCheckpoint()
	w, err := writer.Open(context.Background(), store, cp)
	require.NoError(t, err)
	for _, c := range contracts {
		_, err := w.Append(context.Background(), writer.AppendMessage{Contract: c, Payload: []byte(c)})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return store, cp
}

func TestReaderReadReturnsMessagesInOrder(t *testing.T) {
	ctx := context.Background()
	store, cp := seedLog(t, "a", "b", "c")
	l, err := cp.Read(ctx)
	require.NoError(t, err)

	r := reader.New(store, cp, 4096)
	msgs, next, err := r.Read(ctx, 0, l, 10)
	require.NoError(t, err)
	assert.Equal(t, l, next)
	require.Len(t, msgs, 3)
	assert.Equal(t, "a", msgs[0].Contract)
	assert.Equal(t, "c", msgs[2].Contract)
}

func TestReaderReadRespectsMaxCount(t *testing.T) {
	ctx := context.Background()
	store, cp := seedLog(t, "a", "b", "c")
	l, err := cp.Read(ctx)
	require.NoError(t, err)

	r := reader.New(store, cp, 4096)
	msgs, next, err := r.Read(ctx, 0, l, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Less(t, next, l)
}

func TestReaderReadEmptyRangeReturnsNoMessages(t *testing.T) {
	ctx := context.Background()
	store, cp := seedLog(t, "a")
	l, err := cp.Read(ctx)
	require.NoError(t, err)

	r := reader.New(store, cp, 4096)
	msgs, next, err := r.Read(ctx, l, l, 5)
	require.NoError(t, err)
	assert.Nil(t, msgs)
	assert.Equal(t, l, next)
}

func TestReaderReadRejectsInvertedRange(t *testing.T) {
	ctx := context.Background()
	store, cp := seedLog(t, "a")

	r := reader.New(store, cp, 4096)
	_, _, err := r.Read(ctx, 10, 5, 1)
	require.ErrorIs(t, err, messagevault.ErrInvalidArgument)
}

func TestReadAsyncFailsWhenFromIsAheadOfCheckpoint(t *testing.T) {
	ctx := context.Background()
	store, cp := seedLog(t, "a")
	l, err := cp.Read(ctx)
	require.NoError(t, err)

	r := reader.New(store, cp, 4096, reader.WithClock(fastClock{}))
	_, _, err = r.ReadAsync(ctx, l+1000, 1)
	require.ErrorIs(t, err, messagevault.ErrInvalidState)
}

func TestReadAsyncDelegatesOnceCheckpointAdvances(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, cp := seedLog(t, "a")
	l, err := cp.Read(ctx)
	require.NoError(t, err)

	// from == L, so ReadAsync keeps polling until the append below
	// advances the checkpoint, then reads the new message.
	type result struct {
		msgs []message.Message
		next uint64
		err  error
	}
	done := make(chan result, 1)
	r := reader.New(store, cp, 4096, reader.WithClock(fastClock{}))
	go func() {
		msgs, next, err := r.ReadAsync(ctx, l, 1)
		done <- result{msgs: msgs, next: next, err: err}
	}()

	w, err := writer.Open(ctx, store, cp)
	require.NoError(t, err)
	newL, err := w.Append(ctx, writer.AppendMessage{Contract: "b", Payload: []byte("b")})
	require.NoError(t, err)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, newL, res.next)
	require.Len(t, res.msgs, 1)
	assert.Equal(t, "b", res.msgs[0].Contract)
}

func TestSubscribeDeliversExistingAndNewMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, cp := seedLog(t, "a", "b")

	sub := reader.Subscribe(ctx, store, cp, 0, 4096, 8, reader.WithClock(fastClock{}))

	received := make([]string, 0, 3)
	for i := 0; i < 2; i++ {
		msg, ok := sub.Receive(ctx)
		require.True(t, ok)
		received = append(received, msg.Contract)
	}
	assert.Equal(t, []string{"a", "b"}, received)

	w, err := writer.Open(ctx, store, cp)
	require.NoError(t, err)
	_, err = w.Append(ctx, writer.AppendMessage{Contract: "c", Payload: []byte("c")})
	require.NoError(t, err)

	msg, ok := sub.Receive(ctx)
	require.True(t, ok)
	assert.Equal(t, "c", msg.Contract)
}

func TestSubscribeStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store, cp := seedLog(t, "a")

	sub := reader.Subscribe(ctx, store, cp, 0, 4096, 8, reader.WithClock(fastClock{}))
	msg, ok := sub.Receive(ctx)
	require.True(t, ok)
	assert.Equal(t, "a", msg.Contract)

	cancel()

	for {
		_, ok := sub.Receive(context.Background())
		if !ok {
			break
		}
	}
}
