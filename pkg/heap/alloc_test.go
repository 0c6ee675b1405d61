package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocNodeStartsAtGenerationZeroUnmarked(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	n := h.AllocNode(TagSymbol)

	assert.Equal(t, uint8(0), n.Generation())
	assert.False(t, n.Marked())
}

func TestAllocVectorRejectsNegativeLength(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	_, err := h.TryAllocVector(TagIntVector, -1)
	assert.ErrorIs(t, err, ErrNegativeLength)
}

func TestAllocVectorReferenceElementsDefaultToNil(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	v := h.AllocVector(TagGenericVector, 3)

	for i := 0; i < v.Length; i++ {
		assert.Same(t, h.Nil(), v.Elems[i])
	}
}

func TestConsProtectsArgumentsAcrossAllocation(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	car := h.AllocNode(TagSymbol)
	cdr := h.AllocNode(TagSymbol)

	pair := h.Cons(car, cdr)

	assert.Same(t, car, pair.Car)
	assert.Same(t, cdr, pair.Cdr)
	assert.Equal(t, 0, len(h.roots.protectStack)) // Cons balances its own protect/unprotect
}

func TestAllocListBuildsProperList(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	list := h.AllocList(3)

	count := 0
	cur := list
	for cur.Tag != TagNil {
		count++
		cur = cur.Cdr
	}
	assert.Equal(t, 3, count)
}

func TestReusedNumericVectorSlotIsNotZeroed(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	v := h.AllocVector(TagRealVector, 4)
	v.Reals[0] = 42
	h.initPayload(v, TagRealVector, 4) // simulate the slot being recycled by the page allocator

	require.Len(t, v.Reals, 4)
	assert.Equal(t, 42.0, v.Reals[0], "numeric vectors are not required to be zero-initialized on reuse")
}

func TestCharStringIsAlwaysFreshlyZeroed(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	v := h.AllocVector(TagCharString, 4)
	v.Bytes[0] = 'x'
	h.initPayload(v, TagCharString, 4)

	assert.Equal(t, byte(0), v.Bytes[0])
}

func TestNodesInUseTracksAllocationsBeforeAnyCollection(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	h.AllocNode(TagSymbol)
	h.AllocNode(TagSymbol)
	h.AllocVector(TagRealVector, 4096) // ClassLarge

	assert.Equal(t, 3, h.NodesInUse())
}

func TestSmallVectorClassReportsExhaustionRatherThanFallingThrough(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	h.cfg.GCTorture = true
	h.cfg.MaxNSize = 1 // clamp growth so a permanently-protected node pins nSize at capacity
	h.nSize = 1

	h.Protect(h.AllocNode(TagSymbol)) // one permanent class-0 survivor, never freed

	class := classFor(1)
	require.NotEqual(t, ClassLarge, class)
	require.NotEqual(t, ClassNonVector, class)

	_, err := h.TryAllocVector(TagIntVector, 1)
	assert.ErrorIs(t, err, ErrVectorExhausted)
}
