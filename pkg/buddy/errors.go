package buddy

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory is returned when Malloc or Realloc cannot find or grow
	// a block of the requested size anywhere in the tree.
	ErrOutOfMemory = errors.New("buddy: out of memory")

	// ErrOversizeRequest is returned when a request exceeds the configured
	// root size (2^curSize bytes).
	ErrOversizeRequest = errors.New("buddy: requested size exceeds heap capacity")

	// ErrInvalidPointer is returned when Free or Realloc is given a pointer
	// that is null, belongs to a different heap, or does not address the
	// start of a block leaf (with Heap.StrictFree, of an Alloc block).
	ErrInvalidPointer = errors.New("buddy: pointer does not address a live block")
)

// AllocError wraps one of the sentinel errors above with the operation and
// requested size that produced it. Use [pkg/xerrors.AsA] to recover it from
// a res.Result's Err value without a type switch.
type AllocError struct {
	Op   string
	Size uint32
	Err  error
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("buddy: %s(%d): %v", e.Op, e.Size, e.Err)
}

func (e *AllocError) Unwrap() error { return e.Err }
