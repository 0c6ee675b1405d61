package heap

// collectorWorklist is the worklist used across a single collection's
// mark phases. Small/non-vector nodes thread through Node.next (safe
// because forward() unsnaps them from their generation list first);
// large nodes never move list membership, so they get a plain slice.
type collectorWorklist struct {
	small worklist
	large []*Node
}

func (w *collectorWorklist) pushSmall(n *Node) { w.small.push(n) }
func (w *collectorWorklist) pushLarge(n *Node) { w.large = append(w.large, n) }

func (w *collectorWorklist) popLarge() *Node {
	n := len(w.large)
	if n == 0 {
		return nil
	}
	last := w.large[n-1]
	w.large = w.large[:n-1]
	return last
}

func (w *collectorWorklist) empty() bool {
	return w.small.empty() && len(w.large) == 0
}

// forwardNode is forward() (§4.4) specialized to route large-class
// nodes onto the slice worklist instead of the intrusive one, since
// large nodes never leave newSpace[ClassLarge] (§4.7 sweeps them in
// place; they have no Old[] generation lists to be promoted into).
func forwardNode(n *Node, w *collectorWorklist) {
	if n == nil || n.marked {
		return
	}
	n.marked = true
	if int(n.class) == ClassLarge {
		w.pushLarge(n)
		return
	}
	unsnap(n)
	w.pushSmall(n)
}

// collectLevel returns the number of old generations to collect this
// round (§4.5 "Collection-level selection"), 0..NumOldGenerations.
func (h *Heap) collectLevel() int {
	level := 0
	for g := 0; g < NumOldGenerations; g++ {
		freq := h.cfg.LevelFreq[g]
		if freq <= 0 {
			break
		}
		h.genCounter[g]++
		if h.genCounter[g] < freq {
			break
		}
		h.genCounter[g] = 0
		level = g + 1
	}
	return level
}

// genCounts reports, after a round of marking, how many nodes ended
// up in each generation (g=0 is new-space occupancy), summed across
// classes — the "<g0>+<g1>+<g2>" of §6's textual report.
type genCounts [NumOldGenerations + 1]int

func (h *Heap) currentGenCounts() genCounts {
	var gc genCounts
	for c := 0; c < NumSmallNodeClasses; c++ {
		gc[0] += count(h.newSpace[c])
		for g := 1; g <= NumOldGenerations; g++ {
			gc[g] += h.oldCount[c][g]
		}
	}
	return gc
}

// Collect runs one (possibly escalating) collection sufficient to try
// to free sizeNeeded additional vector cells (§4.5, §4.8). sizeNeeded
// may be 0 for an unconditional gc() request.
func (h *Heap) Collect(sizeNeeded int) {
	level := h.collectLevel()
	h.runCollection(level, sizeNeeded)
}

// ForceFullCollection is `gc()` (§6): forces a full collection
// regardless of the level-selection counters.
func (h *Heap) ForceFullCollection() {
	h.runCollection(NumOldGenerations, 0)
}

func (h *Heap) runCollection(level, sizeNeeded int) {
	finalizersRan := false
	for {
		priorNodesInUse := h.nodesInUse

		h.markRound(level)
		h.sweepLarge()
		for c := 0; c < NumSmallNodeClasses; c++ {
			h.free[c] = h.newSpace[c].next
		}
		h.recomputeSmallVallocSize()
		h.nodesInUse = h.totalOldCount()
		h.collectionCount++

		if level == NumOldGenerations {
			h.sortNewSpace()
			h.adjustSizing(sizeNeeded)
		}

		if level >= 1 {
			h.collectionsSinceRelease++
			if h.collectionsSinceRelease >= h.cfg.PageReleaseFreq {
				h.collectionsSinceRelease = 0
				for c := 0; c < NumSmallNodeClasses; c++ {
					released := h.tryReleasePages(c)
					h.metrics.pagesReleased.Add(float64(released))
				}
			}
		}

		counts := h.currentGenCounts()
		h.reportIfEnabled(level, counts)
		h.metrics.observeCollection(level, counts, h.nodesInUse, h.VCellsInUse())

		freed := priorNodesInUse - h.nodesInUse
		vheapFree := h.vSize - h.smallVallocSize - h.largeVallocSize - sizeNeeded

		needsEscalation := float64(freed) < h.cfg.MinFreeFrac*float64(h.nSize) ||
			float64(vheapFree) < h.cfg.MinFreeFrac*float64(h.vSize)

		if needsEscalation && level < NumOldGenerations {
			level++
			continue
		}

		if !finalizersRan {
			ran := h.runEligibleFinalizers()
			if ran {
				finalizersRan = true
				if h.overBudget(sizeNeeded) {
					continue
				}
			}
		}

		if freed == 0 && h.overBudget(sizeNeeded) && level < NumOldGenerations {
			level++
			continue
		}

		return
	}
}

func (h *Heap) overBudget(sizeNeeded int) bool {
	if h.nodesInUse >= h.nSize {
		return true
	}
	vheapFree := h.vSize - h.smallVallocSize - h.largeVallocSize
	return sizeNeeded > vheapFree
}

func (h *Heap) totalOldCount() int {
	total := 0
	for c := 0; c < NumSmallNodeClasses; c++ {
		for g := 1; g <= NumOldGenerations; g++ {
			total += h.oldCount[c][g]
		}
	}
	return total
}

func (h *Heap) recomputeSmallVallocSize() {
	total := 0
	for c := 1; c < NumSmallNodeClasses; c++ {
		for g := 1; g <= NumOldGenerations; g++ {
			total += h.oldCount[c][g] * vectorCellCounts[c]
		}
	}
	h.smallVallocSize = total
	h.metrics.smallVallocSize.Set(float64(total))
}

// markRound runs the five mark phases of §4.5 in order.
func (h *Heap) markRound(level int) {
	var w collectorWorklist

	h.absorbOldToNew(level, &w)
	h.demoteToNew(level)
	h.rescanUncollectedOldToNew(level, &w)
	h.enumerateAllRoots(func(n *Node) { forwardNode(n, &w) })
	h.markFinalizerTargetsLive(&w)
	h.drainWorklist(&w)
}

// absorbOldToNew is phase 1: for every collected old generation,
// forward the children of every OldToNew entry (so they survive even
// if the entry's own fate is re-decided this round), then return the
// entry to its ordinary Old[] list so phase 2 can reconsider it like
// any other member of that generation.
func (h *Heap) absorbOldToNew(level int, w *collectorWorklist) {
	for g := 1; g <= level; g++ {
		for c := 0; c < NumSmallNodeClasses; c++ {
			forEach(h.oldToNew[c][g], func(entry *Node) {
				EachChild(entry, func(ch *Node) { forwardNode(ch, w) })
			})
			bulkMove(h.oldToNew[c][g], h.old[c][g])
			forEach(h.old[c][g], func(entry *Node) {
				if entry.onOldToNew {
					entry.onOldToNew = false
				}
			})
		}
	}
}

// demoteToNew is phase 2: new-space members are unmarked in place and
// pre-promoted from generation 0 to 1 (first survival); every
// collected old generation is unmarked, pre-promoted by one
// generation (capped), and bulk-moved into new-space.
func (h *Heap) demoteToNew(level int) {
	for c := 0; c < NumSmallNodeClasses; c++ {
		forEach(h.newSpace[c], func(n *Node) {
			n.marked = false
			if n.generation == 0 {
				n.generation = 1
			}
		})
		for g := 1; g <= level; g++ {
			h.oldCount[c][g] = 0
			forEach(h.old[c][g], func(n *Node) {
				n.marked = false
				if int(n.generation) < NumOldGenerations {
					n.generation++
				}
			})
			bulkMove(h.old[c][g], h.newSpace[c])
		}
	}
}

// rescanUncollectedOldToNew is phase 3: generations not collected this
// round still need their recorded old-to-new edges honored, but the
// entries themselves are already old enough and stay put.
func (h *Heap) rescanUncollectedOldToNew(level int, w *collectorWorklist) {
	for g := level + 1; g <= NumOldGenerations; g++ {
		for c := 0; c < NumSmallNodeClasses; c++ {
			forEach(h.oldToNew[c][g], func(entry *Node) {
				EachChild(entry, func(ch *Node) { forwardNode(ch, w) })
			})
		}
	}
}

// drainWorklist is phase 5: pop a node, splice it into Old[class][gen]
// (class LARGE nodes just get their children scanned, since they
// never leave newSpace[ClassLarge] — §4.7), forward its children.
func (h *Heap) drainWorklist(w *collectorWorklist) {
	for !w.empty() {
		if n := w.small.pop(); n != nil {
			if n.generation == 0 {
				// A node forwarded before demoteToNew's own new-space pass
				// reached it (absorbed via an old-to-new edge, or found
				// directly by a root) still needs its first-survival
				// promotion out of generation 0.
				n.generation = 1
			}
			c := int(n.class)
			g := int(n.generation)
			h.oldCount[c][g]++
			snap(n, h.old[c][g])
			EachChild(n, func(ch *Node) { forwardNode(ch, w) })
			continue
		}
		n := w.popLarge()
		EachChild(n, func(ch *Node) { forwardNode(ch, w) })
	}
}

// sortNewSpace rebuilds each class's new-space list in page-traversal
// order after a full collection, restoring locality without moving
// any object (§4.5 "Sorting").
func (h *Heap) sortNewSpace() {
	for c := 0; c < NumSmallNodeClasses; c++ {
		h.newSpace[c] = newPeg()
		for p := h.pageChain[c]; p != nil; p = p.next {
			for i := range p.slots {
				slot := &p.slots[i]
				if !slot.marked {
					snap(slot, h.newSpace[c])
				}
			}
		}
		h.free[c] = h.newSpace[c].next
	}
}
