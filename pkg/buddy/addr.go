package buddy

import "strconv"

// A block leaf is any Free or Alloc node: one that represents an actual,
// contiguous block in the storage area. nodeToAddress and addressToNode
// both perform the same in-order walk over block leaves, threading a byte
// accumulator through the left subtree before ever touching the right one.
//
// The original C accumulates into a struct field shared across the whole
// recursion and "returns whichever of the two subtree calls produced a
// value" — an idiom that only works if the left call is fully evaluated,
// accumulator and all, before the right one starts. Here that ordering is
// made explicit: each call returns (result, ok) and the right subtree is
// only invoked once the left one has reported failure, so there is no way
// for the two to race over the shared accumulator.

// nodeToAddress returns the accumulated byte offset of target within the
// storage area. bytes is the running total of block-leaf sizes visited so
// far; ok is false if target was never reached as a block leaf under n.
func (h *Heap) nodeToAddress(n, target node, bytes *int64) (int64, bool) {
	st := h.status(n)

	switch {
	case (st == Free || st == Alloc) && h.inTree(n):
		if n == target {
			return *bytes, true
		}

		*bytes += int64(1) << h.nodeSize(n)

		return 0, false

	case h.isValid(n):
		if off, ok := h.nodeToAddress(h.nodeLeft(n), target, bytes); ok {
			return off, true
		}

		return h.nodeToAddress(h.nodeRight(n), target, bytes)

	default:
		return 0, false
	}
}

// addressToNode returns the block leaf whose in-order byte offset equals
// target, or ok=false if no leaf starts exactly there.
func (h *Heap) addressToNode(n node, target int64, bytes *int64) (node, bool) {
	st := h.status(n)

	switch {
	case (st == Free || st == Alloc) && h.inTree(n):
		if *bytes == target {
			return n, true
		}

		*bytes += int64(1) << h.nodeSize(n)

		return noNode, false

	case h.isValid(n):
		if found, ok := h.addressToNode(h.nodeLeft(n), target, bytes); ok {
			return found, true
		}

		return h.addressToNode(h.nodeRight(n), target, bytes)

	default:
		return noNode, false
	}
}

// addressOf translates a node to its byte offset within the storage area.
func (h *Heap) addressOf(n node) (int64, bool) {
	var bytes int64
	return h.nodeToAddress(0, n, &bytes)
}

// nodeAt translates a storage-area byte offset to its node.
func (h *Heap) nodeAt(offset int64) (node, bool) {
	var bytes int64
	return h.addressToNode(0, offset, &bytes)
}

// Addr is a validated handle to a block previously returned by Malloc or
// Realloc: a byte offset into a Heap's storage area, scoped to the Heap
// that produced it.
//
// It plays the role the teacher's xunsafe.Addr[T] plays for GC-visible
// arena memory: arithmetic-free, bounds-checked, and cheap to pass by
// value. The zero Addr is the null pointer.
type Addr struct {
	heap   *Heap
	offset int64
}

// IsNull reports whether a is the null address.
func (a Addr) IsNull() bool { return a.heap == nil }

// Offset returns a's byte offset within its heap's storage area. It is 0 for
// the null address, which is indistinguishable from a valid offset-0 address
// by this field alone — callers that need to tell them apart must check
// IsNull first.
func (a Addr) Offset() int64 { return a.offset }

// String renders a's storage-area offset in decimal, matching how the
// original implementation's test driver reports returned pointers relative
// to the storage base.
func (a Addr) String() string { return strconv.FormatInt(a.offset, 10) }

// heapOffset returns the absolute offset of a within its heap's region,
// including header and tree overhead.
func (a Addr) heapOffset() int {
	return a.heap.overhead() + int(a.offset)
}
