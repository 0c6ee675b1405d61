package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtectUnprotectBalances(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	n := h.AllocNode(TagSymbol)

	h.Protect(n)
	require.Len(t, h.roots.protectStack, 1)

	require.NoError(t, h.Unprotect(1))
	assert.Empty(t, h.roots.protectStack)
}

func TestUnprotectImbalanceIsAnError(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	assert.ErrorIs(t, h.Unprotect(1), ErrStackImbalance)
}

func TestUnprotectPtrRemovesByIdentityNotPosition(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	a, b, c := h.AllocNode(TagSymbol), h.AllocNode(TagSymbol), h.AllocNode(TagSymbol)
	h.Protect(a)
	h.Protect(b)
	h.Protect(c)

	require.NoError(t, h.UnprotectPtr(b))

	assert.Equal(t, []*Node{a, c}, h.roots.protectStack)
}

func TestUnprotectPtrNotFound(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	n := h.AllocNode(TagSymbol)
	assert.ErrorIs(t, h.UnprotectPtr(n), ErrPointerNotFound)
}

func TestPreserveAndReleaseObject(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	n := h.AllocNode(TagSymbol)

	h.PreserveObject(n)
	assert.Contains(t, h.roots.precious, n)

	h.ReleaseObject(n)
	assert.NotContains(t, h.roots.precious, n)
}

type stubProvider struct{ roots []*Node }

func (s stubProvider) EnumerateRoots(visit func(*Node)) {
	for _, n := range s.roots {
		visit(n)
	}
}

func TestEnumerateAllRootsVisitsEveryCategory(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	protected := h.AllocNode(TagSymbol)
	precious := h.AllocNode(TagSymbol)
	external := h.AllocNode(TagSymbol)

	h.Protect(protected)
	h.PreserveObject(precious)
	h.AddRootProvider(stubProvider{roots: []*Node{external}})

	var seen []*Node
	h.enumerateAllRoots(func(n *Node) { seen = append(seen, n) })

	assert.Contains(t, seen, protected)
	assert.Contains(t, seen, precious)
	assert.Contains(t, seen, external)
}

func TestProtectPanicsWithStackOverflowPastCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxProtectStackSize = 2
	h := NewHeap(cfg, nil)
	n := h.AllocNode(TagSymbol)

	h.Protect(n)
	h.Protect(n)

	assert.PanicsWithValue(t, ErrStackOverflow, func() { h.Protect(n) })
}

func TestVMaxGetSetScopesRawAllocations(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	mark := h.VMaxGet()

	_, err := h.AllocRaw(16, 1)
	require.NoError(t, err)
	assert.Equal(t, mark+1, h.VMaxGet())

	h.VMaxSet(mark)
	assert.Equal(t, mark, h.VMaxGet())
}
