// Package region provides the region-provider contract that a [buddy.Heap]
// is built on top of, plus a reference implementation over a pre-sized
// []byte.
//
// A region provider is the allocator's sole environmental dependency: a
// capability that grows a linear byte region and reports where it starts.
// It plays the role of a program-break advancement primitive (the textbook
// equivalent of sbrk), decoupled from any particular backing store so that
// a caller embedding the allocator in, say, an mmap'd segment can supply
// their own implementation.
package region

import (
	"fmt"
	"unsafe"
)

// Provider extends a linear byte region on demand. It is invoked only during
// [buddy.Heap] initialization, never afterward: once a heap is initialized
// its footprint is fixed for the life of the region.
//
// Grow extends the region by increment bytes and returns the address the
// region ended at immediately before the extension — the same contract as
// sbrk. A Provider implementation must guarantee that the memory backing
// previously returned addresses never moves and remains valid for as long
// as the region is in use.
type Provider interface {
	Grow(increment int32) (previousEnd uintptr)
}

// Fixed is a Provider backed by a single pre-sized []byte. It simulates
// sbrk against a fixed-capacity arena rather than the OS heap: the full
// capacity is reserved up front, and Grow only ever advances a logical
// break cursor within it.
//
// A Fixed is not safe for concurrent use, matching the allocator's own
// single-threaded contract.
type Fixed struct {
	mem []byte
	brk int
}

// NewFixed allocates a region of the given capacity and returns a Provider
// over it. capacity must be large enough to hold whatever header, tree, and
// storage a subsequent [buddy.Init] call will carve out of it; Grow
// panics if a request would exceed it.
func NewFixed(capacity int) *Fixed {
	if capacity <= 0 {
		panic("region: capacity must be positive")
	}

	return &Fixed{mem: make([]byte, capacity)}
}

// Base returns the address of the first byte of the region.
func (f *Fixed) Base() uintptr {
	return uintptr(unsafe.Pointer(&f.mem[0]))
}

// Len returns the total capacity of the region, in bytes.
func (f *Fixed) Len() int { return len(f.mem) }

// Grow implements Provider.
func (f *Fixed) Grow(increment int32) uintptr {
	if increment < 0 {
		panic("region: negative increment")
	}

	prevEnd := f.Base() + uintptr(f.brk)

	next := f.brk + int(increment)
	if next > len(f.mem) {
		panic(fmt.Sprintf("region: grow by %d exceeds fixed capacity %d (brk=%d)", increment, len(f.mem), f.brk))
	}

	f.brk = next

	return prevEnd
}
