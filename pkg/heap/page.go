package heap

// basePageSize is the simulated byte budget of one slab page, minus
// nothing — the per-class slot count already accounts for the page
// header (§4.2).
const basePageSize = 8000

// pageHeaderSize is the cost of the one-pointer `next` field chaining
// pages together for release.
const pageHeaderSize = 8

// page is one slab of uniform-size slots for a single node class. It
// owns the backing Node storage for its slots (Go still garbage
// collects the backing array itself; the simulated heap on top just
// treats the slots as a pool the mutator checks out from and the
// collector returns to).
type page struct {
	class int
	slots []Node
	next  *page // singly-linked per-class page chain (§4.2)
}

// slotsPerPage returns floor((basePageSize - pageHeaderSize) / slotSize(c)).
func slotsPerPage(c int) int {
	avail := basePageSize - pageHeaderSize
	return avail / slotSize(c)
}

// newPage allocates a page for class c, initializes every slot's
// header from a zeroed template, and returns it along with its slots
// as a slice ready for splicing into New[c].
func newPage(c int) *page {
	n := slotsPerPage(c)
	p := &page{
		class: c,
		slots: make([]Node, n),
	}
	for i := range p.slots {
		p.slots[i] = Node{Tag: TagNil, class: uint8(c)}
	}
	return p
}

// growClass allocates one page for class c, splices every slot into
// h.newSpace[c] ahead of the anchor, updates AllocCount/PageCount, and
// remembers the page for future release.
func (h *Heap) growClass(c int) {
	p := newPage(c)
	for i := range p.slots {
		slot := &p.slots[i]
		snap(slot, h.newSpace[c])
	}
	h.allocCount[c] += len(p.slots)
	h.pageCount[c]++
	p.next = h.pageChain[c]
	h.pageChain[c] = p
	h.free[c] = h.newSpace[c].next
}

// tryReleasePages implements §4.2's release policy. It is invoked
// every R_PageReleaseFreq level>=1 collections (the caller decides
// when). A page is releasable iff every one of its slots is still
// unmarked, i.e. still sitting in new-space (a marked slot would have
// been forwarded into Old[] and detached from the page's membership
// test below only in spirit — concretely we check "not currently
// detached from new-space", which for an unswept collection means
// still being found via n.marked==false AND class still c).
func (h *Heap) tryReleasePages(c int) int {
	if h.pageChain[c] == nil {
		return 0
	}
	oldCount := 0
	for g := 1; g <= NumOldGenerations; g++ {
		oldCount += h.oldCount[c][g]
	}
	maxrel := h.allocCount[c] - int((1.0+h.cfg.MaxKeepFrac)*float64(oldCount))
	if maxrel <= 0 {
		return 0
	}
	perPage := slotsPerPage(c)
	if perPage == 0 {
		return 0
	}
	maxrelPages := maxrel / perPage
	released := 0

	var kept *page
	cur := h.pageChain[c]
	for cur != nil && maxrelPages > 0 {
		next := cur.next
		if pageFullyUnmarked(cur) {
			for i := range cur.slots {
				unsnap(&cur.slots[i])
			}
			h.allocCount[c] -= len(cur.slots)
			h.pageCount[c]--
			released++
			maxrelPages--
		} else {
			cur.next = kept
			kept = cur
		}
		cur = next
	}
	// anything left unvisited (maxrelPages exhausted) stays, prepended
	// in original relative order behind `kept`.
	for cur != nil {
		next := cur.next
		cur.next = kept
		kept = cur
		cur = next
	}
	h.pageChain[c] = reversePages(kept)
	h.free[c] = h.newSpace[c].next
	return released
}

func pageFullyUnmarked(p *page) bool {
	for i := range p.slots {
		if p.slots[i].marked {
			return false
		}
	}
	return true
}

// reversePages restores original page-chain order after the
// keep/release pass above prepended survivors in reverse.
func reversePages(p *page) *page {
	var rev *page
	for p != nil {
		next := p.next
		p.next = rev
		rev = p
		p = next
	}
	return rev
}
