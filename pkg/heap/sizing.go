package heap

// adjustSizing is the §4.8 heap-sizing controller, run once after
// every full collection. It grows NSize/VSize when post-collection
// occupancy is still uncomfortably high relative to the ceiling, and
// shrinks them back down when a ceiling has become mostly wasted
// headroom — in both cases by the larger of an absolute floor and a
// fraction of the current ceiling, so tiny heaps still move and huge
// heaps don't ratchet by a single page.
func (h *Heap) adjustSizing(sizeNeeded int) {
	h.nSize = adjustCeiling(h.nSize, h.nodesInUse, h.origNSize, h.cfg.NGrowFrac, h.cfg.NGrowIncrMin,
		h.cfg.NGrowIncrFrac, h.cfg.NShrinkFrac, h.cfg.NShrinkIncrMin, h.cfg.NShrinkIncrFrac,
		h.cfg.MaxNSize)

	vUsed := h.smallVallocSize + h.largeVallocSize + sizeNeeded
	h.vSize = adjustCeiling(h.vSize, vUsed, h.origVSize, h.cfg.VGrowFrac, h.cfg.VGrowIncrMin,
		h.cfg.VGrowIncrFrac, h.cfg.VShrinkFrac, h.cfg.VShrinkIncrMin, h.cfg.VShrinkIncrFrac,
		h.cfg.MaxVSize)

	h.metrics.nSize.Set(float64(h.nSize))
	h.metrics.vSize.Set(float64(h.vSize))
}

// adjustCeiling grows or shrinks one ceiling (NSize or VSize). The
// shrink floor is max(used, origCeiling): §4.8 never lets the sizing
// controller shrink a ceiling below the heap's own starting floor,
// even when actual occupancy is lower than that.
func adjustCeiling(ceiling, used, origCeiling int, growFrac float64, growIncrMin int, growIncrFrac float64,
	shrinkFrac float64, shrinkIncrMin int, shrinkIncrFrac float64, max int) int {

	occupancy := 0.0
	if ceiling > 0 {
		occupancy = float64(used) / float64(ceiling)
	}

	switch {
	case occupancy > growFrac:
		incr := int(float64(ceiling) * growIncrFrac)
		if incr < growIncrMin {
			incr = growIncrMin
		}
		ceiling += incr
	case occupancy < shrinkFrac:
		incr := int(float64(ceiling) * shrinkIncrFrac)
		if incr < shrinkIncrMin {
			incr = shrinkIncrMin
		}
		ceiling -= incr
		floor := used
		if origCeiling > floor {
			floor = origCeiling
		}
		if ceiling < floor {
			ceiling = floor
		}
	}

	if max > 0 && ceiling > max {
		ceiling = max
	}
	return ceiling
}
