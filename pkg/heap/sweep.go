package heap

// sweepLarge walks newSpace[ClassLarge] after a mark round and frees
// every unmarked large vector (§4.7 "Large-object allocator"). Large
// nodes never leave this list on promotion — there is no Old[] list
// for ClassLarge — so survivors are simply unmarked in place for the
// next round, mirroring what demoteToNew does for small classes.
func (h *Heap) sweepLarge() {
	cells := 0
	var next *Node
	for n := h.newSpace[ClassLarge].next; n != h.newSpace[ClassLarge]; n = next {
		next = n.next
		if n.marked {
			n.marked = false
			cells += sizeInCells(n.Tag, n.Length)
			continue
		}
		unsnap(n)
		h.releaseLargePayload(n)
	}
	h.largeVallocSize = cells
	h.metrics.largeVallocSize.Set(float64(cells))
}

// releaseLargePayload drops a dead large vector's backing storage so
// the Go runtime's own collector can reclaim it; the Node header
// itself is simply abandoned (no free list for class LARGE — each is
// allocated individually, per §4.7).
func (h *Heap) releaseLargePayload(n *Node) {
	n.Bytes = nil
	n.Logicals = nil
	n.Ints = nil
	n.Reals = nil
	n.Complexes = nil
	n.Elems = nil
}
