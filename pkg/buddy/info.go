package buddy

import (
	"bufio"
	"fmt"
	"io"
)

// Info writes one line per block leaf (Free or Alloc) in left-to-right
// in-order sequence to w: "allocated <bytes>\n" or "free <bytes>\n", bytes
// given in decimal. The format is bit-exact with the original C
// implementation's stdout output, since external tooling may diff against
// it.
func (h *Heap) Info(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if err := h.writeInfo(bw, 0); err != nil {
		return err
	}

	return bw.Flush()
}

func (h *Heap) writeInfo(w *bufio.Writer, n node) error {
	if !h.isValid(n) {
		return nil
	}

	switch h.status(n) {
	case Alloc, Free:
		label := "free"
		if h.status(n) == Alloc {
			label = "allocated"
		}

		_, err := fmt.Fprintf(w, "%s %d\n", label, uint64(1)<<h.nodeSize(n))
		return err

	default:
		if err := h.writeInfo(w, h.nodeLeft(n)); err != nil {
			return err
		}
		return h.writeInfo(w, h.nodeRight(n))
	}
}
