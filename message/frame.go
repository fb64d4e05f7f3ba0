// Package message implements the on-disk frame format for a single
// MessageVault record: a 1-byte version, a 16-byte id, a varint-prefixed
// UTF-8 contract string, a 4-byte little-endian payload length, and the
// payload bytes. See spec.md §4.1 and §6 for the bit-exact layout.
package message

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	messagevault "github.com/perokvist/messageVault"
)

// FormatVersion is the only version byte this implementation understands.
const FormatVersion byte = 0x01

const (
	// MaxContract is the largest contract string (in bytes) a frame may carry.
	MaxContract = 1024

	// MaxMessage is the largest total framed size (including all
	// framing overhead) a single message may occupy.
	MaxMessage = 2*1024*1024 - 64
)

// fixedOverhead is the number of bytes in a frame that aren't the
// contract or the payload: version(1) + id(16) + payload length(4).
const fixedOverhead = 1 + 16 + 4

// Message is a single decoded record.
type Message struct {
	ID       ID
	Contract string
	Payload  []byte
}

// EstimateSize returns the exact framed size of a message with the given
// contract and payload, used by the Writer to decide when to flush.
// It is "estimate" only in name — the format has no variable-width
// fields besides the varint contract-length prefix, whose size is known
// up front from len(contract).
func EstimateSize(contract string, payload []byte) int {
	return fixedOverhead + uvarintSize(uint64(len(contract))) + len(contract) + len(payload)
}

// Validate checks a (contract, payload) pair against the size limits and
// UTF-8 requirement without framing it.
func Validate(contract string, payload []byte) error {
	if !utf8.ValidString(contract) {
		return fmt.Errorf("%w: contract is not valid UTF-8", messagevault.ErrInvalidArgument)
	}
	if len(contract) > MaxContract {
		return &messagevault.OversizeError{What: "contract", Size: len(contract), Max: MaxContract}
	}
	if size := EstimateSize(contract, payload); size > MaxMessage {
		return &messagevault.OversizeError{What: "message", Size: size, Max: MaxMessage}
	}
	return nil
}

// Write emits version byte, 16-byte id, length-prefixed contract, 4-byte
// little-endian payload length, and payload bytes to sink. It fails only
// on sink I/O errors (callers should call Validate first to catch
// oversize messages).
func Write(sink io.Writer, id ID, contract string, payload []byte) error {
	var hdr [1 + 16]byte
	hdr[0] = FormatVersion
	copy(hdr[1:], id[:])
	if _, err := sink.Write(hdr[:]); err != nil {
		return err
	}

	var varintBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(varintBuf[:], uint64(len(contract)))
	if _, err := sink.Write(varintBuf[:n]); err != nil {
		return err
	}
	if len(contract) > 0 {
		if _, err := io.WriteString(sink, contract); err != nil {
			return err
		}
	}

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload))) //nolint:gosec // bounded by MaxMessage
	if _, err := sink.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := sink.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes a single frame from source. The varint contract-length
// prefix is read one byte at a time, so a source that does not implement
// io.ByteReader is wrapped in a fresh bufio.Reader, which may read ahead
// past the end of the frame; to decode several frames from one stream,
// pass the same io.ByteReader to every call. A zero-length payload is
// returned as a nil slice.
func Read(source io.Reader) (Message, error) {
	br, ok := source.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(source)
		source = br.(io.Reader)
	}

	var versionBuf [1]byte
	if _, err := io.ReadFull(source, versionBuf[:]); err != nil {
		if err == io.EOF {
			return Message{}, io.EOF
		}
		return Message{}, truncated(err)
	}
	if versionBuf[0] != FormatVersion {
		return Message{}, fmt.Errorf("%w: version byte 0x%02x", messagevault.ErrUnknownFormat, versionBuf[0])
	}

	var id ID
	if _, err := io.ReadFull(source, id[:]); err != nil {
		return Message{}, truncated(err)
	}

	contractLen, err := binary.ReadUvarint(br)
	if err != nil {
		return Message{}, truncated(err)
	}
	if contractLen > MaxContract {
		return Message{}, &messagevault.OversizeError{What: "contract", Size: int(contractLen), Max: MaxContract}
	}

	contractBytes := make([]byte, contractLen)
	if contractLen > 0 {
		if _, err := io.ReadFull(source, contractBytes); err != nil {
			return Message{}, truncated(err)
		}
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(source, lenBuf[:]); err != nil {
		return Message{}, truncated(err)
	}
	payloadLen := binary.LittleEndian.Uint32(lenBuf[:])

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(source, payload); err != nil {
			return Message{}, truncated(err)
		}
	}

	return Message{ID: id, Contract: string(contractBytes), Payload: payload}, nil
}

// truncated wraps a mid-frame read failure (including a clean io.EOF,
// which here means a partial frame rather than a clean stream boundary)
// as messagevault.ErrTruncated.
func truncated(err error) error {
	return fmt.Errorf("%w: %v", messagevault.ErrTruncated, err)
}

func uvarintSize(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
