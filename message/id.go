package message

import (
	"encoding/binary"
	"time"
)

// ID is a 16-byte message identifier. It encodes the logical offset at
// which the message is written together with a creation timestamp, so
// construction is deterministic given (offset, clock reading) and unique
// per produced message (offsets are themselves strictly increasing within
// a single log).
type ID [16]byte

// NewID builds a message id from the logical offset the message is
// written at and the clock reading observed at append time.
//
// Layout: bytes [0:8) = offset (little-endian), bytes [8:16) = creation
// time as UnixNano (little-endian). The core treats the id's internal
// structure as opaque beyond this determinism/uniqueness contract.
func NewID(offset uint64, at time.Time) ID {
	var id ID
	binary.LittleEndian.PutUint64(id[0:8], offset)
	binary.LittleEndian.PutUint64(id[8:16], uint64(at.UnixNano()))
	return id
}

// Offset returns the logical offset encoded in the id.
func (id ID) Offset() uint64 {
	return binary.LittleEndian.Uint64(id[0:8])
}

// CreatedAt returns the creation timestamp encoded in the id.
func (id ID) CreatedAt() time.Time {
	nanos := binary.LittleEndian.Uint64(id[8:16])
	return time.Unix(0, int64(nanos)).UTC()
}
