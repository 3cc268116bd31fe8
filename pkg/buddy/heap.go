// Package buddy implements a buddy memory allocator over a fixed,
// caller-supplied byte region.
//
// The region is partitioned into power-of-two blocks organized as a
// complete binary tree, bit-packed two bits of status and two bits of
// backup per node into a single byte array laid out immediately after a
// two-byte header. Malloc splits Free blocks down to the smallest power of
// two that satisfies a request; Free coalesces sibling blocks back up the
// tree; Realloc snapshots the tree so a failed resize can restore it
// atomically.
//
// There is no thread safety: the caller is responsible for serializing
// access to a Heap, and concurrent calls on the same Heap are undefined.
package buddy

import (
	"fmt"
	"math/bits"
	"unsafe"

	"github.com/flier/buddyalloc/internal/debug"
	"github.com/flier/buddyalloc/pkg/region"
	"github.com/flier/buddyalloc/pkg/res"
)

// Heap is a buddy allocator bound to a single region. The zero Heap is not
// usable; construct one with Init.
type Heap struct {
	mem []byte

	// StrictFree requires Free to reject an address that does not currently
	// address an Alloc block. When false (the default, matching the
	// original implementation) freeing an already-Free block succeeds as a
	// no-op instead of reporting ErrInvalidPointer.
	StrictFree bool
}

// Init carves a new Heap out of p: a header, a complete buddy tree of depth
// curSize-minSize, and 2^curSize bytes of storage. p.Grow is called exactly
// three times, reserving the header byte, the rest of the tree, and the
// storage area in turn — the same three-step reservation the allocator's
// region-provider contract specifies.
//
// curSize and minSize are both log2 byte sizes; minSize must not exceed
// curSize. Init must be called exactly once per region before any other
// operation; calling it twice, or operating on a Heap that was never
// initialized, is a precondition violation.
func Init(p region.Provider, curSize, minSize uint8) (*Heap, error) {
	if minSize > curSize {
		return nil, fmt.Errorf("buddy: min_size %d exceeds cur_size %d", minSize, curSize)
	}

	depth := int(curSize) - int(minSize)
	overhead := 2 + (1 << (depth + 1))
	total := overhead + (1 << int(curSize))

	base := p.Grow(1)
	p.Grow(int32(overhead - 1))
	p.Grow(int32(1) << curSize)

	h := &Heap{mem: unsafe.Slice((*byte)(unsafe.Pointer(base)), total)}

	h.mem[0] = minSize
	h.mem[1] = curSize

	for i := 2; i < overhead; i++ {
		h.mem[i] = 0
	}
	h.setStatus(0, Free)

	debug.Log(nil, "init", "cur_size=%d min_size=%d overhead=%d total=%d", curSize, minSize, overhead, total)
	h.assertInvariants()
	h.assertBackupsCleared()

	return h, nil
}

// ceilLog2 returns the smallest k such that 2^k >= n.
func ceilLog2(n uint64) uint8 {
	if n <= 1 {
		return 0
	}
	return uint8(bits.Len64(n - 1))
}

// Malloc requests a block of at least size bytes. Requests smaller than
// 2^minSize are rounded up; requests larger than 2^curSize fail with
// ErrOversizeRequest. On success the tree is mutated (at minimum, one node
// flips to Alloc, possibly after intermediate splits); on failure the tree
// is left exactly as it was found, since growTree only splits once it has
// found a Free block large enough to satisfy the request.
func (h *Heap) Malloc(size uint32) res.Result[Addr] {
	h.assertInvariants()

	minBytes := uint64(1) << h.minSize()
	curBytes := uint64(1) << h.curSize()

	if uint64(size) < minBytes {
		size = uint32(minBytes)
	} else if uint64(size) > curBytes {
		return res.Err[Addr](&AllocError{Op: "malloc", Size: size, Err: ErrOversizeRequest})
	}

	logSize := ceilLog2(uint64(size))

	h.growTree(logSize)

	n := h.findNode(0, logSize)
	if n == noNode {
		return res.Err[Addr](&AllocError{Op: "malloc", Size: size, Err: ErrOutOfMemory})
	}

	h.setStatus(n, Alloc)

	offset, ok := h.addressOf(n)
	if !ok {
		// Unreachable: n was just found as a Free node, which addressOf
		// always resolves.
		return res.Err[Addr](&AllocError{Op: "malloc", Size: size, Err: ErrOutOfMemory})
	}

	debug.Log(nil, "malloc", "size=%d -> node=%d offset=%d", size, n, offset)

	return res.Ok(Addr{heap: h, offset: offset})
}

// Free releases a previously allocated block. addr must be a non-null
// address returned by Malloc or Realloc on this Heap; any other value
// (including one from a different Heap) is rejected with
// ErrInvalidPointer.
//
// By default, freeing an address that currently addresses a Free block
// succeeds silently (the original implementation's idempotent-on-Free
// behavior). Set StrictFree to require the block be Alloc.
func (h *Heap) Free(addr Addr) error {
	h.assertInvariants()

	if addr.IsNull() || addr.heap != h {
		return ErrInvalidPointer
	}

	n, ok := h.nodeAt(addr.offset)
	if !ok || !h.isValid(n) {
		return ErrInvalidPointer
	}

	if h.StrictFree && h.status(n) != Alloc {
		return ErrInvalidPointer
	}

	h.setStatus(n, Free)
	h.pruneTree(0)

	debug.Log(nil, "free", "offset=%d -> node=%d", addr.offset, n)

	return nil
}

// Realloc resizes a previously allocated block to size bytes, preserving
// the lesser of its old and new length worth of payload bytes.
//
// The tree is snapshotted before anything is mutated. If the free or the
// subsequent malloc fails, the snapshot is restored and the tree is left
// byte-for-byte as it was before the call (aside from backup fields, which
// are always zero once a public call completes); only on success is the
// data copied into the new block and the snapshot discarded.
func (h *Heap) Realloc(addr Addr, size uint32) res.Result[Addr] {
	h.assertInvariants()
	h.assertBackupsCleared()

	h.backupTree(0)

	if addr.IsNull() || addr.heap != h {
		h.restoreTree(0)
		return res.Err[Addr](&AllocError{Op: "realloc", Size: size, Err: ErrInvalidPointer})
	}

	n, ok := h.nodeAt(addr.offset)
	if !ok || !h.isValid(n) {
		h.restoreTree(0)
		return res.Err[Addr](&AllocError{Op: "realloc", Size: size, Err: ErrInvalidPointer})
	}

	oldSize := uint64(1) << h.nodeSize(n)

	if err := h.Free(addr); err != nil {
		h.restoreTree(0)
		return res.Err[Addr](&AllocError{Op: "realloc", Size: size, Err: err})
	}

	result := h.Malloc(size)
	if result.IsErr() {
		h.restoreTree(0)
		return result
	}

	newAddr := result.Unwrap()

	keep := int(min64(oldSize, uint64(size)))
	copy(h.bytesAt(newAddr, keep), h.bytesAt(addr, keep))

	// The original implementation never clears backup fields on this path,
	// leaving I5 violated until the next backup_tree call happens to
	// overwrite them; clear them explicitly here instead so a completed
	// Realloc always leaves backups zeroed, matching I5 literally.
	h.clearBackupTree(0)

	debug.Log(nil, "realloc", "old_offset=%d new_offset=%d old_size=%d new_size=%d", addr.offset, newAddr.offset, oldSize, size)

	return res.Ok(newAddr)
}

// Bytes returns the first n bytes of payload storage addressed by a, for
// the caller to read and write directly — the actual point of a pointer
// into storage (spec §6: malloc returns "ptr into storage", exercised
// exactly this way by the original test suite's malloc_assigning, which
// strcpy's through the returned pointer and reads it back).
//
// a must be a non-null address returned by Malloc or Realloc on this Heap
// and still live (not yet Freed); n must not exceed the block's size.
// Violating either is a programming error, not a runtime failure mode the
// spec enumerates, so Bytes panics rather than returning an error — the
// same contract a misused Go slice expression would enforce.
func (h *Heap) Bytes(a Addr, n int) []byte {
	if a.IsNull() || a.heap != h {
		panic("buddy: address does not belong to this heap")
	}

	nd, ok := h.nodeAt(a.offset)
	if !ok || h.status(nd) != Alloc {
		panic("buddy: address does not address a live block")
	}

	if max := int(uint64(1) << h.nodeSize(nd)); n < 0 || n > max {
		panic(fmt.Sprintf("buddy: requested %d bytes exceeds block size %d", n, max))
	}

	return h.bytesAt(a, n)
}

// bytesAt returns the n-byte slice of storage addressed by a, without the
// live-block bounds check Bytes performs. Used internally by Realloc,
// which has just resolved n itself as min(oldSize, newSize) and already
// knows both addresses are live.
func (h *Heap) bytesAt(a Addr, n int) []byte {
	off := a.heapOffset()
	return h.mem[off : off+n]
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
