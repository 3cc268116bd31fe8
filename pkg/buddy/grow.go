package buddy

import "github.com/flier/buddyalloc/internal/debug"

// growTree ensures a Free node of exactly size exists, splitting larger
// Free nodes as needed.
//
// It first looks for an exact match. Failing that, it probes upward
// (size+1, size+2, ...) for the smallest Free block that can be split down
// to size, splits the found block by one level, and recurses. If no Free
// block of size >= size exists anywhere in the tree, it is a silent no-op:
// the subsequent findNode(size) call in Malloc returns noNode and the
// caller reports an allocation failure.
//
// Because the search for a sufficient block happens before any split, a
// split always ends in a Free node of exactly size (for size >= minSize),
// and a failed search leaves the tree untouched.
func (h *Heap) growTree(size uint8) {
	n := h.findNode(0, size)

	for sz := int(size) + 1; n == noNode && sz <= int(h.curSize()); sz++ {
		n = h.findNode(0, uint8(sz))
	}

	if n == noNode {
		return
	}

	curr := h.nodeSize(n)
	if curr > size && curr > h.minSize() {
		left, right := h.nodeLeft(n), h.nodeRight(n)

		h.setStatus(right, Free)
		h.setStatus(left, Free)
		h.setStatus(n, Parent)

		debug.Log(nil, "split", "node %d: %d -> parent, children %d,%d -> free (size %d)", n, curr, left, right, curr-1)

		h.growTree(size)
	}
}
