package heap

// allocSmall takes the next slot from class c's free cursor, growing
// the class with a fresh page if the cursor has caught up to the
// new-space peg (§4.2, §4.3 "Small-class allocation").
func (h *Heap) allocSmall(c int) *Node {
	if h.free[c] == h.newSpace[c] {
		tail := h.newSpace[c].prev
		h.growClass(c)
		h.free[c] = tail.next // first slot of the fresh page
	}
	slot := h.free[c]
	h.free[c] = slot.next
	return slot
}

// needGC reports whether the next allocation must trigger a collection
// per §4.3's three preconditions.
func (h *Heap) needGC(cellsWanted int) bool {
	if h.cfg.GCTorture {
		return true
	}
	if h.nodesInUse >= h.nSize {
		return true
	}
	vheapFree := h.vSize - h.smallVallocSize - h.largeVallocSize
	return cellsWanted > vheapFree
}

// AllocNode allocates a fresh non-vector node of the given tag
// (§6 `alloc_node`).
func (h *Heap) AllocNode(tag Tag) *Node {
	return h.allocate(tag, 0)
}

// AllocVector allocates a typed vector of length elements
// (§6 `alloc_vector`). Negative or overflowing lengths are rejected
// before any heap mutation (§7).
func (h *Heap) AllocVector(tag Tag, length int) *Node {
	n, err := h.tryAllocVector(tag, length)
	if err != nil {
		panic(err) // caller-facing errors from this path are host non-local-exit material
	}
	return n
}

// TryAllocVector is the recoverable-error form of AllocVector.
func (h *Heap) TryAllocVector(tag Tag, length int) (*Node, error) {
	return h.tryAllocVector(tag, length)
}

func (h *Heap) tryAllocVector(tag Tag, length int) (*Node, error) {
	if length < 0 {
		return nil, ErrNegativeLength
	}
	const maxCells = (1 << 62) / cellSize
	cells := sizeInCells(tag, length)
	if cells < 0 || cells >= maxCells-nodeHeaderSize {
		return nil, ErrVectorTooLarge
	}
	return h.allocateChecked(tag, length, cells)
}

func (h *Heap) allocate(tag Tag, length int) *Node {
	cells := sizeInCells(tag, length)
	n, err := h.allocateChecked(tag, length, cells)
	if err != nil {
		panic(err)
	}
	return n
}

func (h *Heap) allocateChecked(tag Tag, length, cells int) (*Node, error) {
	if h.needGC(cells) {
		h.Collect(cells)
	}
	class := classFor(cells)

	if class == ClassLarge {
		vheapFree := h.vSize - h.smallVallocSize - h.largeVallocSize
		if cells > vheapFree {
			return nil, ErrVectorExhausted
		}
		n := &Node{Tag: tag, class: uint8(ClassLarge)}
		snap(n, h.newSpace[ClassLarge])
		h.initPayload(n, tag, length)
		h.largeVallocSize += cells
		h.metrics.largeVallocSize.Set(float64(h.largeVallocSize))
		h.nodesInUse++
		return n, nil
	}

	if h.nodesInUse >= h.nSize {
		// Still over budget even after a collection attempt above.
		if h.free[class].next == h.newSpace[class] && h.pageChain[class] == nil {
			if class == ClassNonVector {
				return nil, ErrConsExhausted
			}
			return nil, ErrVectorExhausted
		}
	}

	n := h.allocSmall(class)
	n.Tag = tag
	h.initPayload(n, tag, length)
	if class != ClassLarge {
		h.smallVallocSize += vectorCellCounts[class]
	}
	h.nodesInUse++
	return n, nil
}

// initPayload resets a freshly handed-out slot's variant payload.
// Reference-valued vectors and character strings are canonicalized
// (§4.3 "a collection racing with uninitialized memory does not
// observe garbage"); numeric vectors deliberately are not — a reused
// slot's backing storage is kept as-is when large enough, so its
// initial contents are whatever the slot's previous tenant left behind
// (§9 "precise pre-initialization... not universally zeroed").
func (h *Heap) initPayload(n *Node, tag Tag, length int) {
	n.Attrib = h.nilNode
	n.PairTag, n.Car, n.Cdr = nil, nil, nil
	n.Frame, n.Enclos, n.Hashtab = nil, nil, nil
	n.ExtTag, n.Prot, n.Raw = nil, nil, nil
	n.Length, n.TrueLength = length, length
	n.marked = false
	n.generation = 0
	n.onOldToNew = false

	switch tag {
	case TagCharString:
		n.Bytes = make([]byte, length)
	case TagLogicalVector:
		if cap(n.Logicals) < length {
			n.Logicals = make([]int32, length)
		} else {
			n.Logicals = n.Logicals[:length]
		}
	case TagIntVector:
		if cap(n.Ints) < length {
			n.Ints = make([]int32, length)
		} else {
			n.Ints = n.Ints[:length]
		}
	case TagRealVector:
		if cap(n.Reals) < length {
			n.Reals = make([]float64, length)
		} else {
			n.Reals = n.Reals[:length]
		}
	case TagComplexVector:
		if cap(n.Complexes) < length {
			n.Complexes = make([]complexVal, length)
		} else {
			n.Complexes = n.Complexes[:length]
		}
	case TagStringVector, TagExpressionVector, TagGenericVector:
		n.Elems = make([]*Node, length)
		for i := range n.Elems {
			n.Elems[i] = h.nilNode
		}
	case TagNil, TagSymbol, TagPair, TagLanguage, TagDotted, TagClosure,
		TagEnvironment, TagPromise, TagBuiltin, TagSpecial, TagExternalPtr:
		// three-slot / named-field variants; nothing vector-shaped to init
	}
}

// Cons allocates a list cell (§6 `cons`).
func (h *Heap) Cons(car, cdr *Node) *Node {
	h.Protect(car)
	h.Protect(cdr)
	n := h.AllocNode(TagPair)
	n.Car = car
	n.Cdr = cdr
	_ = h.Unprotect(2)
	return n
}

// AllocList builds a chain of n cons cells, each cdr pointing to the
// next and the final cdr set to nil (§6 `alloc_list`).
func (h *Heap) AllocList(n int) *Node {
	result := h.nilNode
	h.Protect(result)
	for i := 0; i < n; i++ {
		result = h.Cons(h.nilNode, result)
		h.Reprotect(result, len(h.roots.protectStack)-1)
	}
	_ = h.Unprotect(1)
	return result
}

// NewEnvironment allocates an environment frame (§6 `new_environment`).
func (h *Heap) NewEnvironment(frame, enclos *Node) *Node {
	h.Protect(frame)
	h.Protect(enclos)
	env := h.AllocNode(TagEnvironment)
	env.Frame = frame
	env.Enclos = enclos
	env.Hashtab = h.nilNode
	_ = h.Unprotect(2)
	return env
}

// MakePromise allocates a lazy-evaluation promise (§6 `make_promise`).
func (h *Heap) MakePromise(expr, env *Node) *Node {
	h.Protect(expr)
	h.Protect(env)
	p := h.AllocNode(TagPromise)
	p.Cdr = expr       // expr
	p.PairTag = env    // env
	p.Car = h.nilNode  // value, forced later
	p.Forced = false
	_ = h.Unprotect(2)
	return p
}

// MakeExternalPtr allocates an opaque external-pointer node
// (§6 `make_external_ptr`).
func (h *Heap) MakeExternalPtr(raw interface{}, tag, prot *Node) *Node {
	h.Protect(tag)
	h.Protect(prot)
	n := h.AllocNode(TagExternalPtr)
	n.Raw = raw
	n.ExtTag = tag
	n.Prot = prot
	_ = h.Unprotect(2)
	return n
}

// NewSymbol allocates a symbol with the given printname, starting
// unbound (value == nil singleton, per §3's symbol payload).
func (h *Heap) NewSymbol(printname string) *Node {
	n := h.AllocNode(TagSymbol)
	n.Printname = printname
	n.Car = h.nilNode // value
	n.Cdr = h.nilNode // internal
	return n
}

// NewClosure allocates a closure (§3 "closure holds {formals, body, cloenv}").
func (h *Heap) NewClosure(formals, body, cloenv *Node) *Node {
	h.Protect(formals)
	h.Protect(body)
	h.Protect(cloenv)
	cl := h.AllocNode(TagClosure)
	cl.Car = formals
	cl.Cdr = body
	cl.PairTag = cloenv
	_ = h.Unprotect(3)
	return cl
}
