package heap

// checkOldToNew is the write barrier's core (§5 "Write barrier"): if
// container is older than referent, or referent is unmarked while
// container sits in an old generation, move container onto
// OldToNew[class(container)][generation(container)]. The move is
// idempotent — a container visited twice before the next collection
// stays exactly once on the list.
//
// This package implements the "track" policy of the two permitted by
// §9 ("Old-to-new strategy choice"): record the edge and rescan at the
// next collection of generations >= the container's, rather than
// immediately aging the referent.
func (h *Heap) checkOldToNew(container, referent *Node) {
	if container == nil || referent == nil {
		return
	}
	if container.generation == 0 {
		return // new-space container: nothing to track yet
	}
	if container.onOldToNew {
		return // already pending rescan
	}
	if container.generation > referent.generation ||
		(!referent.marked && container.marked) {
		c := int(container.class)
		g := int(container.generation)
		unsnap(container)
		snap(container, h.oldToNew[c][g])
		container.onOldToNew = true
	}
}

// The setters below are the only sanctioned way to mutate a
// reference-valued field of a live node (§5, §6 "Write-barrier
// surface"). Every one of them routes through checkOldToNew before
// the field is actually overwritten; reads never need the barrier.

func (h *Heap) SetAttrib(n, v *Node) {
	h.checkOldToNew(n, v)
	n.Attrib = v
}

func (h *Heap) SetCar(n, v *Node) {
	h.checkOldToNew(n, v)
	n.Car = v
}

func (h *Heap) SetCdr(n, v *Node) {
	h.checkOldToNew(n, v)
	n.Cdr = v
}

func (h *Heap) SetPairTag(n, v *Node) {
	h.checkOldToNew(n, v)
	n.PairTag = v
}

func (h *Heap) SetFrame(env, v *Node) {
	h.checkOldToNew(env, v)
	env.Frame = v
}

func (h *Heap) SetEnclos(env, v *Node) {
	h.checkOldToNew(env, v)
	env.Enclos = v
}

func (h *Heap) SetHashtab(env, v *Node) {
	h.checkOldToNew(env, v)
	env.Hashtab = v
}

func (h *Heap) SetExtTag(n, v *Node) {
	h.checkOldToNew(n, v)
	n.ExtTag = v
}

func (h *Heap) SetProt(n, v *Node) {
	h.checkOldToNew(n, v)
	n.Prot = v
}

// SetVectorElem writes element i of a reference-valued vector
// (string/expression/generic), barrier included.
func (h *Heap) SetVectorElem(vec *Node, i int, v *Node) {
	h.checkOldToNew(vec, v)
	vec.Elems[i] = v
}

// Convenience accessors matching the closure/promise field names used
// in §3, expressed via the shared three-slot layout (§4.1).
func (h *Heap) SetFormals(cl, v *Node) { h.SetCar(cl, v) }
func (h *Heap) SetBody(cl, v *Node)    { h.SetCdr(cl, v) }
func (h *Heap) SetCloenv(cl, v *Node)  { h.SetPairTag(cl, v) }

func (h *Heap) SetPromiseValue(p, v *Node) { h.SetCar(p, v) }
func (h *Heap) SetPromiseExpr(p, v *Node)  { h.SetCdr(p, v) }
func (h *Heap) SetPromiseEnv(p, v *Node)   { h.SetPairTag(p, v) }

func Formals(cl *Node) *Node { return cl.Car }
func Body(cl *Node) *Node    { return cl.Cdr }
func Cloenv(cl *Node) *Node  { return cl.PairTag }

func PromiseValue(p *Node) *Node { return p.Car }
func PromiseExpr(p *Node) *Node  { return p.Cdr }
func PromiseEnv(p *Node) *Node   { return p.PairTag }
