package heap

// FinalizerFunc is invoked once, at most, when its target becomes
// reachable only through the finalizer registry itself (§4.6
// "Finalizer registry"). It receives the target so the runtime can
// release whatever external resource the target's Raw field holds.
type FinalizerFunc func(target *Node)

// finalizerEntry pairs a registered target with its callback and the
// onExit flag (§4.6: onExit entries also run at heap teardown, not
// just when found unreachable).
type finalizerEntry struct {
	target  *Node
	fn      FinalizerFunc
	onExit  bool
	wasRun  bool
}

// finalizerRegistry holds every still-pending finalizer plus, between
// a mark round and runEligibleFinalizers, the set whose target just
// became unreachable.
type finalizerRegistry struct {
	entries  []*finalizerEntry
	eligible []*finalizerEntry
}

func newFinalizerRegistry() *finalizerRegistry {
	return &finalizerRegistry{}
}

// RegisterFinalizer attaches fn to target (§4.6 `register_finalizer`).
// Only environments and external pointers may carry a finalizer — the
// two tags whose whole purpose is owning something outside the heap.
func (h *Heap) RegisterFinalizer(target *Node, fn FinalizerFunc, onExit bool) error {
	if target == nil || (target.Tag != TagEnvironment && target.Tag != TagExternalPtr) {
		return ErrInvalidFinalizerTarget
	}
	if fn == nil {
		return ErrInvalidFinalizerFunc
	}
	h.finalizers.entries = append(h.finalizers.entries, &finalizerEntry{
		target: target,
		fn:     fn,
		onExit: onExit,
	})
	return nil
}

// UnregisterFinalizer removes every pending finalizer entry for
// target, e.g. when the mutator releases the external resource itself.
func (h *Heap) UnregisterFinalizer(target *Node) {
	kept := h.finalizers.entries[:0]
	for _, e := range h.finalizers.entries {
		if e.target != target {
			kept = append(kept, e)
		}
	}
	h.finalizers.entries = kept
}

// markFinalizerTargetsLive is called during root forwarding (§4.6: a
// registered target is kept alive across the collection it's
// discovered dead in, so the finalizer can still read its fields) —
// it treats every still-pending entry's target as an extra root.
func (h *Heap) markFinalizerTargetsLive(w *collectorWorklist) {
	for _, e := range h.finalizers.entries {
		forwardNode(e.target, w)
	}
}

// recheckReachability scans the registry after a mark round for
// targets that did not get marked by anything except
// markFinalizerTargetsLive itself — i.e. the target is reachable
// solely because the registry kept it alive, meaning nothing else in
// the heap still references it (§4.6 "reachable only via finalizer").
//
// Because markFinalizerTargetsLive already forwarded (and thus
// marked) every pending target unconditionally, we cannot distinguish
// "marked only by us" from "marked by the mutator" after the fact
// without a second bit. recheckReachability reruns forwarding from
// every *other* root with finalizer targets excluded, and anything
// still unmarked by that pass is eligible.
func (h *Heap) recheckReachability() {
	for c := 0; c < NumSmallNodeClasses; c++ {
		for g := 0; g <= NumOldGenerations; g++ {
			list := h.old[c][g]
			if g == 0 {
				list = h.newSpace[c]
			}
			forEach(list, func(n *Node) {
				n.marked = false
			})
		}
	}
	forEach(h.newSpace[ClassLarge], func(n *Node) { n.marked = false })

	var pending []*Node
	probe := func(n *Node) {
		if n != nil && !n.marked {
			n.marked = true
			pending = append(pending, n)
		}
	}
	h.enumerateAllRoots(probe)
	for len(pending) > 0 {
		n := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		EachChild(n, probe)
	}

	h.finalizers.eligible = h.finalizers.eligible[:0]
	remaining := h.finalizers.entries[:0]
	for _, e := range h.finalizers.entries {
		if !e.target.marked {
			h.finalizers.eligible = append(h.finalizers.eligible, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	h.finalizers.entries = remaining

	for c := 0; c < NumSmallNodeClasses; c++ {
		for g := 0; g <= NumOldGenerations; g++ {
			list := h.old[c][g]
			if g == 0 {
				list = h.newSpace[c]
			}
			forEach(list, func(n *Node) { n.marked = true })
		}
	}
	forEach(h.newSpace[ClassLarge], func(n *Node) { n.marked = true })
}

// runEligibleFinalizers invokes every eligible finalizer exactly once
// (§4.6 "at-most-once"), detaching it from the registry before
// invocation so a finalizer that itself triggers a collection cannot
// observe its own entry as still pending. Returns whether any ran.
func (h *Heap) runEligibleFinalizers() bool {
	h.recheckReachability()
	if len(h.finalizers.eligible) == 0 {
		return false
	}
	batch := h.finalizers.eligible
	h.finalizers.eligible = nil
	for _, e := range batch {
		if e.wasRun {
			continue
		}
		e.wasRun = true
		func() {
			defer func() {
				if r := recover(); r != nil {
					h.logger.WithField("error", r).Warn("finalizer raised an error")
				}
			}()
			e.fn(e.target)
		}()
	}
	h.metrics.finalizersRun.Add(float64(len(batch)))
	return true
}

// RunExitFinalizers runs every onExit finalizer regardless of
// reachability, for orderly heap teardown (§4.6).
func (h *Heap) RunExitFinalizers() {
	for _, e := range h.finalizers.entries {
		if e.onExit && !e.wasRun {
			e.wasRun = true
			e.fn(e.target)
		}
	}
}
