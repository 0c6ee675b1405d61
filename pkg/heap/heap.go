package heap

import (
	"github.com/sirupsen/logrus"
)

// Heap is the process-wide (or, in this embeddable form, per-instance)
// collector state: generation lists, page chains, root set, finalizer
// registry and sizing targets (§9 "Global mutable state" — encapsulated
// in one heap context value rather than package globals, the
// encapsulation the spec explicitly allows).
type Heap struct {
	cfg Config

	newSpace [NumNodeClasses]*Node
	old      [NumNodeClasses][NumOldGenerations + 1]*Node
	oldToNew [NumNodeClasses][NumOldGenerations + 1]*Node

	free      [NumNodeClasses]*Node
	pageChain [NumNodeClasses]*page

	allocCount [NumNodeClasses]int
	pageCount  [NumNodeClasses]int
	oldCount   [NumNodeClasses][NumOldGenerations + 1]int

	nodesInUse      int
	nSize           int
	vSize           int
	origNSize       int
	origVSize       int
	smallVallocSize int
	largeVallocSize int

	genCounter [NumOldGenerations + 1]int

	collectionCount int
	collectionsSinceRelease int

	nilNode *Node

	roots      *rootState
	finalizers *finalizerRegistry

	logger  *logrus.Logger
	metrics *metricsSet
}

// NewHeap constructs a heap with cfg applied and the nil singleton
// bootstrapped (§3 "Key invariants": nil self-references through
// car/cdr/tag/attrib and is never freed; its list links bypass the
// write barrier entirely since it has no list membership yet at
// bootstrap — §9 "Cyclic references").
func NewHeap(cfg Config, logger *logrus.Logger) *Heap {
	if logger == nil {
		logger = defaultLogger()
	}
	h := &Heap{
		cfg:       cfg,
		nSize:     cfg.InitNSize,
		vSize:     cfg.InitVSize,
		origNSize: cfg.InitNSize,
		origVSize: cfg.InitVSize,
		logger:    logger,
	}
	for c := 0; c < NumNodeClasses; c++ {
		h.newSpace[c] = newPeg()
		h.free[c] = h.newSpace[c]
		for g := 0; g <= NumOldGenerations; g++ {
			h.old[c][g] = newPeg()
			h.oldToNew[c][g] = newPeg()
		}
	}
	h.roots = newRootState()
	h.finalizers = newFinalizerRegistry()
	h.metrics = newMetricsSet()

	// nilNode stays permanently marked: it never sits on any generation
	// list (its next/prev are self-references, not list membership), so
	// forwardNode must treat it as already-handled rather than unsnap or
	// splice it like an ordinary reachable node.
	h.nilNode = &Node{Tag: TagNil, marked: true}
	h.nilNode.Attrib = h.nilNode
	h.nilNode.PairTag = h.nilNode
	h.nilNode.Car = h.nilNode
	h.nilNode.Cdr = h.nilNode
	h.nilNode.next = h.nilNode
	h.nilNode.prev = h.nilNode

	return h
}

// Nil returns the heap's singleton nil value.
func (h *Heap) Nil() *Node { return h.nilNode }

// NodesInUse returns the live node count found by the most recent
// collection (§8 invariant 4) plus every node allocated since.
func (h *Heap) NodesInUse() int { return h.nodesInUse }

// VCellsInUse returns small+large vector cell occupancy.
func (h *Heap) VCellsInUse() int { return h.smallVallocSize + h.largeVallocSize }

// NSize/VSize expose the current soft ceilings the sizing controller
// maintains (§4.8).
func (h *Heap) NSize() int { return h.nSize }
func (h *Heap) VSize() int { return h.vSize }

func defaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return l
}
