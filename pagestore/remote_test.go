package pagestore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	messagevault "github.com/perokvist/messageVault"
)

// fakeObjectClient is a minimal in-memory objectClient, standing in for
// the S3/MinIO adapters so remoteStore's read-modify-write logic can be
// exercised without a network round trip.
type fakeObjectClient struct {
	data   []byte
	exists bool
	puts   int
}

func (f *fakeObjectClient) headSize(_ context.Context) (uint64, bool, error) {
	return uint64(len(f.data)), f.exists, nil
}

func (f *fakeObjectClient) getAll(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (f *fakeObjectClient) putAll(_ context.Context, body io.Reader, size int64) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.data = b
	f.exists = true
	f.puts++
	return nil
}

func TestRemoteStoreInitCreatesEmptyObjectOnce(t *testing.T) {
	ctx := context.Background()
	client := &fakeObjectClient{}
	store := newRemoteStore(client, 64, 0)

	require.NoError(t, store.Init(ctx))
	assert.Equal(t, 1, client.puts)

	require.NoError(t, store.Init(ctx))
	assert.Equal(t, 1, client.puts, "Init must be idempotent")
}

func TestRemoteStoreEnsureSizeAndWritePagesRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &fakeObjectClient{exists: true}
	store := newRemoteStore(client, 64, 0)

	require.NoError(t, store.EnsureSize(ctx, 100))
	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(128), size)

	page := bytes.Repeat([]byte{0x7}, 64)
	require.NoError(t, store.WritePages(ctx, page, 64))

	got := make([]byte, 64)
	require.NoError(t, store.ReadRange(ctx, got, 64))
	assert.Equal(t, page, got)
}

func TestRemoteStoreWritePagesRejectsMisalignment(t *testing.T) {
	ctx := context.Background()
	client := &fakeObjectClient{exists: true, data: make([]byte, 128)}
	store := newRemoteStore(client, 64, 0)

	require.ErrorIs(t, store.WritePages(ctx, make([]byte, 64), 5), messagevault.ErrInvalidArgument)
	require.ErrorIs(t, store.WritePages(ctx, make([]byte, 5), 0), messagevault.ErrInvalidArgument)
}

func TestRemoteStoreWritePagesPreservesUntouchedRegions(t *testing.T) {
	ctx := context.Background()
	initial := bytes.Repeat([]byte{0xAA}, 128)
	client := &fakeObjectClient{exists: true, data: append([]byte(nil), initial...)}
	store := newRemoteStore(client, 64, 0)

	newPage := bytes.Repeat([]byte{0xBB}, 64)
	require.NoError(t, store.WritePages(ctx, newPage, 64))

	untouched := make([]byte, 64)
	require.NoError(t, store.ReadRange(ctx, untouched, 0))
	assert.Equal(t, initial[:64], untouched)
}
