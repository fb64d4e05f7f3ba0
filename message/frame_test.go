package message_test

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	messagevault "github.com/perokvist/messageVault"
	"github.com/perokvist/messageVault/message"
)

func TestWriteReadRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		contract string
		payload  []byte
	}{
		{"empty payload", "a", nil},
		{"ascii contract", "orders.v1.created", bytes.Repeat([]byte{0xAB}, 100)},
		{"unicode contract", "événement.créé", []byte("hello")},
		{"empty contract", "", []byte{1, 2, 3}},
		{"large payload", "k", bytes.Repeat([]byte{0x01}, 64*1024)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := message.NewID(123, time.Unix(1700000000, 0))
			var buf bytes.Buffer
			require.NoError(t, message.Write(&buf, id, tc.contract, tc.payload))
			require.Equal(t, message.EstimateSize(tc.contract, tc.payload), buf.Len())

			got, err := message.Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, id, got.ID)
			assert.Equal(t, tc.contract, got.Contract)
			assert.Equal(t, tc.payload, got.Payload)
		})
	}
}

func TestReadUnknownFormat(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x02})
	_, err := message.Read(buf)
	require.ErrorIs(t, err, messagevault.ErrUnknownFormat)
}

func TestReadTruncatedMidFrame(t *testing.T) {
	var full bytes.Buffer
	require.NoError(t, message.Write(&full, message.NewID(0, time.Now()), "c", []byte("payload")))

	truncated := bytes.NewReader(full.Bytes()[:10])
	_, err := message.Read(truncated)
	require.ErrorIs(t, err, messagevault.ErrTruncated)
}

func TestReadCleanEOF(t *testing.T) {
	_, err := message.Read(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.EOF)
}

func TestValidateOversizeContract(t *testing.T) {
	big := bytes.Repeat([]byte{'x'}, message.MaxContract+1)
	err := message.Validate(string(big), nil)
	require.Error(t, err)
	var oversize *messagevault.OversizeError
	require.ErrorAs(t, err, &oversize)
	assert.Equal(t, "contract", oversize.What)
}

func TestValidateOversizeMessage(t *testing.T) {
	payload := bytes.Repeat([]byte{0}, message.MaxMessage)
	err := message.Validate("c", payload)
	require.Error(t, err)
	require.ErrorIs(t, err, messagevault.ErrInvalidArgument)
}

func TestIDEncodesOffsetAndClock(t *testing.T) {
	at := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)
	id := message.NewID(4096, at)
	assert.Equal(t, uint64(4096), id.Offset())
	assert.True(t, id.CreatedAt().Equal(at))
}
