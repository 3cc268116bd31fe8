package buddy

import "github.com/flier/buddyalloc/internal/debug"

// pruneTree coalesces bottom-up from n: after recursing into both children,
// if both are Free, n is promoted to Free and both children are marked
// Inactive. The recursion only enters subtrees where both children are
// valid (i.e. n is Parent); Free and Alloc leaves are terminal and are
// never descended into.
func (h *Heap) pruneTree(n node) {
	left, right := h.nodeLeft(n), h.nodeRight(n)

	if !h.isValid(left) || !h.isValid(right) {
		return
	}

	h.pruneTree(left)
	h.pruneTree(right)

	if h.status(left) == Free && h.status(right) == Free {
		h.setStatus(n, Free)
		h.setStatus(left, Inactive)
		h.setStatus(right, Inactive)

		debug.Log(nil, "coalesce", "node %d: children %d,%d -> inactive, node -> free (size %d)", n, left, right, h.nodeSize(n))
	}
}
