package retro

import "errors"

// Errors returned by the scene components. Call sites wrap these with
// context and the "retro:" prefix, so compare with errors.Is.
var (
	// ErrCapacity means no free slot, id or texture index is available.
	ErrCapacity = errors.New("out of capacity")

	// ErrOccupied means a texture cell is already loaded.
	ErrOccupied = errors.New("texture cell occupied")

	// ErrAlreadyActive means a sprite id is already active.
	ErrAlreadyActive = errors.New("sprite already active")

	// ErrAlreadyInactive means a sprite id or texture cell is already free.
	ErrAlreadyInactive = errors.New("already inactive")

	// ErrInactive means a read or mutation targeted a sprite that is not active.
	ErrInactive = errors.New("sprite inactive")

	// ErrShapeMismatch means a cell list does not match its sprite shape.
	ErrShapeMismatch = errors.New("sprite shape mismatch")

	// ErrFormat means malformed input data: wrong length, dimensions or
	// color mode.
	ErrFormat = errors.New("invalid format")

	// ErrIndex means an out-of-range index where wrapping does not apply.
	ErrIndex = errors.New("index out of range")

	// ErrNotBound means a palette slot or palette was never bound.
	ErrNotBound = errors.New("palette not bound")
)
