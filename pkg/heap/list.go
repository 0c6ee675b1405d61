package heap

// newPeg returns a fresh sentinel header anchoring an otherwise empty
// circular doubly-linked list (§3 "Generation bookkeeping", §4.4).
// Pegs are never returned to the mutator and never carry a Tag other
// than TagNil; they exist purely as list anchors.
func newPeg() *Node {
	p := &Node{Tag: TagNil}
	p.next = p
	p.prev = p
	return p
}

// unsnap removes n from whatever list it currently sits on. O(1).
func unsnap(n *Node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = nil
	n.prev = nil
}

// snap inserts n immediately before peg (i.e. at the tail of the list
// peg anchors). O(1).
func snap(n, peg *Node) {
	n.next = peg
	n.prev = peg.prev
	peg.prev.next = n
	peg.prev = n
}

// bulkMove transfers the entire membership of the list anchored at
// from onto the list anchored at to, leaving from empty. O(1) — it
// never visits individual members (§4.4).
func bulkMove(from, to *Node) {
	if from.next == from {
		return // already empty
	}
	firstMember := from.next
	lastMember := from.prev

	firstMember.prev = to.prev
	to.prev.next = firstMember
	lastMember.next = to
	to.prev = lastMember

	from.next = from
	from.prev = from
}

// isEmpty reports whether the list anchored at peg has no members.
func isEmpty(peg *Node) bool { return peg.next == peg }

// forEach walks the list anchored at peg in order, calling fn on each
// member. fn must not unsnap the node it's given without care for the
// saved "next" pointer; forEach itself is safe against fn relocating
// the current node (it captures next before calling fn).
func forEach(peg *Node, fn func(*Node)) {
	cur := peg.next
	for cur != peg {
		next := cur.next
		fn(cur)
		cur = next
	}
}

// count returns the number of members on the list anchored at peg.
// O(n); used only for invariant checks and tests, never on a hot path.
func count(peg *Node) int {
	n := 0
	forEach(peg, func(*Node) { n++ })
	return n
}

// worklist is the singly-linked forwarding queue used by the tracing
// collector (§4.5 "worklist drain"). It threads through Node.next,
// which is safe because a node on the worklist has already been
// unsnapped from its generation list.
type worklist struct {
	head *Node
}

func (w *worklist) push(n *Node) {
	n.next = w.head
	w.head = n
}

func (w *worklist) pop() *Node {
	n := w.head
	if n != nil {
		w.head = n.next
		n.next = nil
	}
	return n
}

func (w *worklist) empty() bool { return w.head == nil }
