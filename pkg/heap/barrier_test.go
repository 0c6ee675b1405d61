package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oldNode builds a node already resident on Old[class][gen], as if it
// had survived a collection, so barrier tests don't need a full run.
func oldNode(h *Heap, class int, gen uint8, marked bool) *Node {
	n := &Node{Tag: TagPair, class: uint8(class), generation: gen, marked: marked}
	snap(n, h.old[class][gen])
	return n
}

func TestSetCarOnNewSpaceNodeSkipsBarrier(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	container := h.AllocNode(TagPair) // generation 0
	referent := h.AllocNode(TagSymbol)

	h.SetCar(container, referent)

	assert.False(t, container.onOldToNew)
	assert.Same(t, referent, container.Car)
}

func TestSetCarTracksOldToNewEdge(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	container := oldNode(h, ClassNonVector, 1, true)
	referent := h.AllocNode(TagSymbol) // generation 0, unmarked

	h.SetCar(container, referent)

	require.True(t, container.onOldToNew)
	assert.Equal(t, 1, count(h.oldToNew[ClassNonVector][1]))
	assert.Equal(t, 0, count(h.old[ClassNonVector][1]))
	assert.Same(t, referent, container.Car)
}

func TestCheckOldToNewIsIdempotent(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	container := oldNode(h, ClassNonVector, 1, true)
	referentA := h.AllocNode(TagSymbol)
	referentB := h.AllocNode(TagSymbol)

	h.SetCar(container, referentA)
	require.True(t, container.onOldToNew)
	h.SetCdr(container, referentB) // second edge from the same container

	assert.Equal(t, 1, count(h.oldToNew[ClassNonVector][1]))
}

func TestSetVectorElemRoutesThroughBarrier(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	vec := oldNode(h, 3, 2, true)
	vec.Tag = TagGenericVector
	vec.Length = 1
	vec.Elems = []*Node{h.Nil()}
	referent := h.AllocNode(TagSymbol)

	h.SetVectorElem(vec, 0, referent)

	assert.Same(t, referent, vec.Elems[0])
	assert.True(t, vec.onOldToNew)
}
