package buddy

import (
	"fmt"

	"github.com/flier/buddyalloc/internal/debug"
)

// assertInvariants checks the global tree structure invariants (spec
// I1-I4) starting at the root and, in debug builds, panics describing the
// first one violated. It is a no-op in non-debug builds, matching
// debug.Assert. Unlike assertBackupsCleared, it holds at every reentrant
// call, including Free's invocation from inside Realloc while a backup is
// in flight, since splitting/coalescing never by itself breaks I1-I4.
func (h *Heap) assertInvariants() {
	bytes, ok, msg := h.checkInvariants(0)
	debug.Assert(ok, "%s", msg)

	want := int64(1) << h.curSize()
	debug.Assert(!ok || bytes == want, "leaves cover %d bytes, want %d (I4)", bytes, want)
}

// checkInvariants recursively verifies I1-I3 at n and below, returning the
// number of storage bytes tiled by block leaves under n so the caller can
// check I4 against the whole tree.
func (h *Heap) checkInvariants(n node) (bytes int64, ok bool, msg string) {
	if !h.inTree(n) {
		return 0, true, ""
	}

	left, right := h.nodeLeft(n), h.nodeRight(n)
	leftActive, rightActive := h.isValid(left), h.isValid(right)

	switch h.status(n) {
	case Inactive:
		if leftActive || rightActive {
			return 0, false, fmt.Sprintf("node %d: inactive but has an active child (I2)", n)
		}
		return 0, true, ""

	case Free, Alloc:
		if leftActive || rightActive {
			return 0, false, fmt.Sprintf("node %d: %v leaf but has an active child (I3)", n, h.status(n))
		}
		return int64(1) << h.nodeSize(n), true, ""

	case Parent:
		if !leftActive || !rightActive {
			return 0, false, fmt.Sprintf("node %d: parent with an inactive child (I2)", n)
		}

	default:
		return 0, false, fmt.Sprintf("node %d: status %d is not one of inactive/free/alloc/parent (I1)", n, h.status(n))
	}

	lb, ok, msg := h.checkInvariants(left)
	if !ok {
		return 0, false, msg
	}

	rb, ok, msg := h.checkInvariants(right)
	if !ok {
		return 0, false, msg
	}

	return lb + rb, true, ""
}

// assertBackupsCleared checks I5: every node's backup field is zero. It
// only holds between completed public calls, so it is asserted once after
// Init and at the top of Realloc, but deliberately not inside Malloc or
// Free, both of which Realloc calls mid-transaction while backup fields are
// still populated from its own backupTree snapshot.
func (h *Heap) assertBackupsCleared() {
	ok, msg := h.checkBackupsCleared(0)
	debug.Assert(ok, "%s", msg)
}

func (h *Heap) checkBackupsCleared(n node) (bool, string) {
	if !h.inTree(n) {
		return true, ""
	}

	if h.backup(n) != Inactive {
		return false, fmt.Sprintf("node %d: backup field %v not cleared after a completed call (I5)", n, h.backup(n))
	}

	if !h.isValid(n) {
		return true, ""
	}

	if ok, msg := h.checkBackupsCleared(h.nodeLeft(n)); !ok {
		return false, msg
	}

	return h.checkBackupsCleared(h.nodeRight(n))
}
