package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrowClassPopulatesFreeCursor(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)

	before := h.pageCount[ClassNonVector]
	h.growClass(ClassNonVector)

	assert.Equal(t, before+1, h.pageCount[ClassNonVector])
	assert.NotEqual(t, h.newSpace[ClassNonVector], h.free[ClassNonVector])
	assert.Equal(t, slotsPerPage(ClassNonVector), h.allocCount[ClassNonVector])
}

func TestTryReleasePagesKeepsEnoughHeadroom(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	h.cfg.MaxKeepFrac = 0 // any new-space surplus beyond old occupancy is releasable

	h.growClass(ClassNonVector)
	require.Equal(t, 1, h.pageCount[ClassNonVector])

	released := h.tryReleasePages(ClassNonVector)

	assert.Equal(t, 1, released)
	assert.Equal(t, 0, h.pageCount[ClassNonVector])
}

func TestTryReleasePagesSkipsPagesWithMarkedSlots(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	h.cfg.MaxKeepFrac = 0
	h.growClass(ClassNonVector)
	h.pageChain[ClassNonVector].slots[0].marked = true

	released := h.tryReleasePages(ClassNonVector)

	assert.Equal(t, 0, released)
	assert.Equal(t, 1, h.pageCount[ClassNonVector])
}
