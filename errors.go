package messagevault

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Components return an error that satisfies
// errors.Is(err, messagevault.ErrXxx); most also wrap an underlying
// cause reachable via errors.Unwrap.
var (
	// ErrInvalidArgument covers bad offsets, counts, and oversize messages/contracts.
	ErrInvalidArgument = errors.New("messagevault: invalid argument")

	// ErrInvalidState covers operations on an uninitialized or closed engine,
	// and reads beyond the published checkpoint.
	ErrInvalidState = errors.New("messagevault: invalid state")

	// ErrUnknownFormat is returned when a frame's version byte is not 0x01.
	ErrUnknownFormat = errors.New("messagevault: unknown frame format")

	// ErrTruncated is returned on unexpected end of stream mid-frame.
	ErrTruncated = errors.New("messagevault: truncated frame")

	// ErrBufferTooSmall is returned when a read request exceeds the
	// Page-Prefetching Reader's buffer capacity.
	ErrBufferTooSmall = errors.New("messagevault: buffer too small")

	// ErrStorage wraps an underlying Page Storage or Checkpoint failure.
	ErrStorage = errors.New("messagevault: storage error")

	// ErrCancelled is returned when an operation is aborted via its cancellation signal.
	ErrCancelled = errors.New("messagevault: cancelled")
)

// OversizeError reports that a message or contract exceeded a configured
// maximum. The original limit and measured size are available for callers
// that want to react programmatically; Unwrap exposes ErrInvalidArgument.
type OversizeError struct {
	What    string // "message" or "contract"
	Size    int
	Max     int
}

func (e *OversizeError) Error() string {
	return fmt.Sprintf("messagevault: %s size %d exceeds maximum %d", e.What, e.Size, e.Max)
}

func (e *OversizeError) Unwrap() error { return ErrInvalidArgument }

// StorageError wraps a failure from a Page Storage or Checkpoint driver,
// identifying which operation failed.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("messagevault: storage op %q failed: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, ErrStorage) to match any StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// WrapStorage wraps a driver error as a StorageError tagged with the
// failing operation name. Returns nil if err is nil.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Cause: err}
}
