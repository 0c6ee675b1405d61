package heap

// RootProvider is the external collaborator interface (§1, §6): the
// rest of the runtime (evaluator, parser, symbol table, device list)
// enumerates every live reference it holds outside the heap. The
// collector never discovers roots conservatively — only through this
// callback plus the protect stack and precious list below (§1
// Non-goals).
type RootProvider interface {
	EnumerateRoots(visit func(*Node))
}

// rawSlot is one entry of the transient C-side allocation stack
// (§6 "Transient C-side stack", §9 legacy 100-slot table). Each entry's
// node is visited directly as a root by enumerateAllRoots.
type rawSlot struct {
	node *Node
}

const defaultRawStackCapacity = 100 // §9: legacy capacity, grown here to rawStackGrowTo on demand
const rawStackGrowTo = 4096

// rootState holds everything the mutator touches directly: the
// protect stack, the precious list, the external root registry, and
// the scoped raw-allocation stack.
type rootState struct {
	protectStack []*Node
	// UnprotectPtr and ReleaseObject locate an entry of protectStack or
	// precious by identity with a linear search, in O(n).
	precious []*Node

	externalRoots []RootProvider

	rawStack []rawSlot
}

func newRootState() *rootState {
	return &rootState{
		protectStack: make([]*Node, 0, 64),
		precious:     make([]*Node, 0, 16),
		rawStack:     make([]rawSlot, 0, defaultRawStackCapacity),
	}
}

// Protect pushes x onto the protect stack and returns it, mirroring
// PROTECT(x) — a one-line idiom at every call site. Exceeding
// MaxProtectStackSize panics with ErrStackOverflow: by contract this
// path must not itself allocate, so there is no recoverable error
// return here (§7, §9 "R_PPStackSize").
func (h *Heap) Protect(x *Node) *Node {
	if len(h.roots.protectStack) >= h.cfg.MaxProtectStackSize {
		panic(ErrStackOverflow)
	}
	h.roots.protectStack = append(h.roots.protectStack, x)
	return x
}

// Unprotect pops k entries off the protect stack. Fatal (ErrStackImbalance)
// if k exceeds the current depth — the spec's error path here uses no
// PROTECT of its own, so we simply return the error rather than
// allocating anything to report it.
func (h *Heap) Unprotect(k int) error {
	if k > len(h.roots.protectStack) {
		return ErrStackImbalance
	}
	h.roots.protectStack = h.roots.protectStack[:len(h.roots.protectStack)-k]
	return nil
}

// UnprotectPtr locates x on the protect stack by identity and removes
// it, shifting later entries down one slot (§6). Fatal if not found.
func (h *Heap) UnprotectPtr(x *Node) error {
	for i := len(h.roots.protectStack) - 1; i >= 0; i-- {
		if h.roots.protectStack[i] == x {
			copy(h.roots.protectStack[i:], h.roots.protectStack[i+1:])
			h.roots.protectStack = h.roots.protectStack[:len(h.roots.protectStack)-1]
			return nil
		}
	}
	return ErrPointerNotFound
}

// ProtectWithIndex pushes x and reports its stack index via idx, so a
// later call site can Reprotect a replacement value at the same slot.
// Subject to the same MaxProtectStackSize ceiling as Protect.
func (h *Heap) ProtectWithIndex(x *Node) (*Node, int) {
	if len(h.roots.protectStack) >= h.cfg.MaxProtectStackSize {
		panic(ErrStackOverflow)
	}
	h.roots.protectStack = append(h.roots.protectStack, x)
	return x, len(h.roots.protectStack) - 1
}

// Reprotect replaces the value at a previously captured protect-stack
// index, without changing stack depth.
func (h *Heap) Reprotect(x *Node, idx int) {
	h.roots.protectStack[idx] = x
}

// PreserveObject adds x to the precious list: kept alive across every
// collection regardless of other reachability, until released.
func (h *Heap) PreserveObject(x *Node) {
	h.roots.precious = append(h.roots.precious, x)
}

// ReleaseObject removes x from the precious list via linear search
// (§6 contract — not optimized, matching the spec's own description).
func (h *Heap) ReleaseObject(x *Node) {
	for i, p := range h.roots.precious {
		if p == x {
			h.roots.precious = append(h.roots.precious[:i], h.roots.precious[i+1:]...)
			return
		}
	}
}

// AddRootProvider registers an external root enumerator (symbol table,
// current expression, context chain, display list stand-ins).
func (h *Heap) AddRootProvider(p RootProvider) {
	h.roots.externalRoots = append(h.roots.externalRoots, p)
}

// AllocRaw appends a scoped raw buffer to the secondary root list,
// returning its node so the caller can stash a byte slice inside it.
// Grows past the legacy 100-slot capacity (§9 open question) rather
// than failing outright.
func (h *Heap) AllocRaw(n int, eltSize int) (*Node, error) {
	if len(h.roots.rawStack) >= rawStackGrowTo {
		return nil, ErrRawStackFull
	}
	node := h.AllocVector(TagCharString, n*eltSize)
	h.roots.rawStack = append(h.roots.rawStack, rawSlot{node: node})
	return node, nil
}

// VMaxGet returns the current top of the raw stack, to be restored by
// VMaxSet on every exit path from a scoped region of raw allocations.
func (h *Heap) VMaxGet() int { return len(h.roots.rawStack) }

// VMaxSet truncates the raw stack back to a mark obtained from
// VMaxGet, releasing everything allocated since.
func (h *Heap) VMaxSet(mark int) {
	if mark < len(h.roots.rawStack) {
		h.roots.rawStack = h.roots.rawStack[:mark]
	}
}

// enumerateAllRoots visits every root in the deterministic order the
// collector relies on: protect stack (oldest first), precious list,
// raw stack, then each registered external provider.
func (h *Heap) enumerateAllRoots(visit func(*Node)) {
	for _, n := range h.roots.protectStack {
		if n != nil {
			visit(n)
		}
	}
	for _, n := range h.roots.precious {
		if n != nil {
			visit(n)
		}
	}
	for _, s := range h.roots.rawStack {
		if s.node != nil {
			visit(s.node)
		}
	}
	for _, p := range h.roots.externalRoots {
		p.EnumerateRoots(visit)
	}
}
