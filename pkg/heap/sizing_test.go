package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustCeilingGrowsWhenOverThreshold(t *testing.T) {
	got := adjustCeiling(100, 90, 0, 0.70, 10, 0.2, 0.30, 0, 0.2, 0)
	assert.Equal(t, 120, got) // 90/100=0.9 > 0.70, incr = max(20, 10) = 20
}

func TestAdjustCeilingShrinksWhenUnderThreshold(t *testing.T) {
	got := adjustCeiling(1000, 100, 0, 0.70, 10, 0.2, 0.30, 0, 0.2, 0)
	assert.Equal(t, 800, got) // 100/1000=0.1 < 0.30, incr = max(200, 0) = 200
}

func TestAdjustCeilingNeverShrinksBelowUsed(t *testing.T) {
	// occupancy 900/1000=0.9 < shrinkFrac 0.95, so it wants to shrink by
	// max(500, 0); without the floor that would land below `used`.
	got := adjustCeiling(1000, 900, 0, 1.1 /* never grows */, 0, 0, 0.95, 0, 0.5, 0)
	assert.Equal(t, 900, got)
}

func TestAdjustCeilingNeverShrinksBelowOrigCeiling(t *testing.T) {
	// used (100) is well below origCeiling (600): the floor must still
	// hold at origCeiling, not used.
	got := adjustCeiling(1000, 100, 600, 1.1 /* never grows */, 0, 0, 0.95, 0, 0.5, 0)
	assert.Equal(t, 600, got)
}

func TestAdjustCeilingRespectsMax(t *testing.T) {
	got := adjustCeiling(100, 90, 0, 0.70, 50, 0.5, 0.30, 0, 0.2, 110)
	assert.Equal(t, 110, got)
}

func TestAdjustSizingUpdatesHeapCeilings(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	h.nodesInUse = int(float64(h.nSize) * 0.9)

	before := h.nSize
	h.adjustSizing(0)

	assert.Greater(t, h.nSize, before)
}
