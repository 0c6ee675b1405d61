package heap

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// reportIfEnabled logs the §6 textual report for one collection when
// GCInfo is on. The three lines are folded into one structured
// logrus entry: the message carries the first line verbatim, the
// remaining two as fields, so a plain-text formatter prints them as
// key=value pairs on the same line while a JSON formatter keeps them
// queryable.
func (h *Heap) reportIfEnabled(level int, counts genCounts) {
	if !h.cfg.GCInfo {
		return
	}

	freeCons := h.nSize - h.nodesInUse
	consPct := pct(freeCons, h.nSize)

	vheapFree := h.vSize - h.smallVallocSize - h.largeVallocSize
	if vheapFree < 0 {
		vheapFree = 0
	}
	heapFreeBytes := uint64(vheapFree) * cellSize
	heapPct := pct(vheapFree, h.vSize)

	msg := fmt.Sprintf("Garbage collection %d = %d+%d+%d (level %d) ...",
		h.collectionCount, counts[0], counts[1], counts[2], level)

	h.logger.WithFields(logrus.Fields{
		"level":       level,
		"gens":        counts,
		"nodes_free":  freeCons,
		"nodes_free_pct": consPct,
		"vcells_free": humanize.Bytes(heapFreeBytes),
		"vcells_free_pct": heapPct,
	}).Info(msg)
}

func pct(free, total int) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * float64(free) / float64(total)
}

// MemoryProfile is `memory_profile()` (§6): per-tag live counts taken
// immediately after a forced full collection, for diagnostic dumps.
func (h *Heap) MemoryProfile() map[Tag]int {
	h.ForceFullCollection()
	profile := make(map[Tag]int)
	for c := 0; c < NumSmallNodeClasses; c++ {
		for g := 1; g <= NumOldGenerations; g++ {
			forEach(h.old[c][g], func(n *Node) { profile[n.Tag]++ })
		}
	}
	forEach(h.newSpace[ClassLarge], func(n *Node) { profile[n.Tag]++ })
	return profile
}

// MemLimits is `mem_limits(nsize, vsize)` (§6): sets hard ceilings the
// sizing controller will not grow past.
func (h *Heap) MemLimits(nsize, vsize int) {
	h.cfg.MaxNSize = nsize
	h.cfg.MaxVSize = vsize
}

// GCTorture is `gc_torture(bool)` (§6).
func (h *Heap) GCTorture(on bool) { h.cfg.GCTorture = on }

// GCInfo is `gc_info(bool)` (§6).
func (h *Heap) GCInfo(on bool) { h.cfg.GCInfo = on }
