package pagestore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	messagevault "github.com/perokvist/messageVault"
	"github.com/perokvist/messageVault/pagestore"
)

func TestMemoryStoreEnsureSizeRoundsUpAndNeverShrinks(t *testing.T) {
	ctx := context.Background()
	store := pagestore.NewMemoryStore(64, 0)

	require.NoError(t, store.EnsureSize(ctx, 100))
	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(128), size)

	require.NoError(t, store.EnsureSize(ctx, 10))
	size, err = store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(128), size, "EnsureSize must never shrink")
}

func TestMemoryStoreWritePagesRejectsMisalignedOffset(t *testing.T) {
	ctx := context.Background()
	store := pagestore.NewMemoryStore(64, 0)
	require.NoError(t, store.EnsureSize(ctx, 128))

	err := store.WritePages(ctx, make([]byte, 64), 10)
	require.ErrorIs(t, err, messagevault.ErrInvalidArgument)
}

func TestMemoryStoreWritePagesRejectsMisalignedLength(t *testing.T) {
	ctx := context.Background()
	store := pagestore.NewMemoryStore(64, 0)
	require.NoError(t, store.EnsureSize(ctx, 128))

	err := store.WritePages(ctx, make([]byte, 10), 0)
	require.ErrorIs(t, err, messagevault.ErrInvalidArgument)
}

func TestMemoryStoreWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := pagestore.NewMemoryStore(64, 0)
	require.NoError(t, store.EnsureSize(ctx, 128))

	page := make([]byte, 64)
	for i := range page {
		page[i] = byte(i)
	}
	require.NoError(t, store.WritePages(ctx, page, 64))

	got := make([]byte, 64)
	require.NoError(t, store.ReadRange(ctx, got, 64))
	assert.Equal(t, page, got)
}

func TestMemoryStoreWriteCountForPageTracksRewrites(t *testing.T) {
	ctx := context.Background()
	store := pagestore.NewMemoryStore(64, 0)
	require.NoError(t, store.EnsureSize(ctx, 128))

	tail := make([]byte, 64)
	require.NoError(t, store.WritePages(ctx, tail, 64))
	assert.Equal(t, 1, store.WriteCountForPage(1))

	tail[0] = 1
	require.NoError(t, store.WritePages(ctx, tail, 64))
	assert.Equal(t, 2, store.WriteCountForPage(1), "rewriting a not-yet-full tail page is expected")

	// page 0 was never touched
	assert.Equal(t, 0, store.WriteCountForPage(0))
}

func TestMemoryStoreReadRangeRejectsOutOfBounds(t *testing.T) {
	ctx := context.Background()
	store := pagestore.NewMemoryStore(64, 0)
	require.NoError(t, store.EnsureSize(ctx, 64))

	err := store.ReadRange(ctx, make([]byte, 64), 64)
	require.ErrorIs(t, err, messagevault.ErrInvalidArgument)
}
