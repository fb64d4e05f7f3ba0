// Package checkpoint implements the Checkpoint abstraction from spec.md
// §3/§6: a single monotonically non-decreasing uint64, the committed
// logical length L of a message stream. Grounded on the teacher's
// internal/manifest.Store atomic CURRENT-pointer pattern, specialized
// down to a bare integer instead of a structured manifest document.
package checkpoint

import "context"

// Checkpoint reads and atomically updates the committed logical length
// of a single message stream.
type Checkpoint interface {
	// Read returns the current committed length, or 0 if the checkpoint
	// has never been written.
	Read(ctx context.Context) (uint64, error)

	// GetOrInit ensures the backing object exists and returns its
	// current value (0 on first call). Writer-only.
	GetOrInit(ctx context.Context) (uint64, error)

	// Update advances the checkpoint to n. Implementations must reject
	// or silently ignore n that does not exceed the stored value — L
	// never regresses. Writer-only.
	Update(ctx context.Context, n uint64) error
}
