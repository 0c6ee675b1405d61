package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapUnsnapRoundTrip(t *testing.T) {
	peg := newPeg()
	a := &Node{Tag: TagNil}
	b := &Node{Tag: TagNil}

	snap(a, peg)
	snap(b, peg)
	assert.Equal(t, 2, count(peg))

	unsnap(a)
	assert.Equal(t, 1, count(peg))
	assert.True(t, isEmpty(newPeg()))
}

func TestBulkMovePreservesOrderAndEmptiesSource(t *testing.T) {
	from := newPeg()
	to := newPeg()
	a, b, c := &Node{Tag: TagNil}, &Node{Tag: TagNil}, &Node{Tag: TagNil}
	snap(a, from)
	snap(b, from)
	snap(c, to)

	bulkMove(from, to)

	require.True(t, isEmpty(from))
	var order []*Node
	forEach(to, func(n *Node) { order = append(order, n) })
	assert.Equal(t, []*Node{c, a, b}, order)
}

func TestBulkMoveFromEmptyIsNoop(t *testing.T) {
	from := newPeg()
	to := newPeg()
	a := &Node{Tag: TagNil}
	snap(a, to)

	bulkMove(from, to)

	assert.Equal(t, 1, count(to))
}

func TestForEachSurvivesUnsnapOfCurrent(t *testing.T) {
	peg := newPeg()
	a, b, c := &Node{Tag: TagNil}, &Node{Tag: TagNil}, &Node{Tag: TagNil}
	snap(a, peg)
	snap(b, peg)
	snap(c, peg)

	var visited []*Node
	forEach(peg, func(n *Node) {
		visited = append(visited, n)
		unsnap(n)
	})

	assert.Equal(t, []*Node{a, b, c}, visited)
	assert.True(t, isEmpty(peg))
}

func TestWorklistIsLIFO(t *testing.T) {
	var w worklist
	a, b := &Node{Tag: TagNil}, &Node{Tag: TagNil}
	w.push(a)
	w.push(b)

	assert.Same(t, b, w.pop())
	assert.Same(t, a, w.pop())
	assert.True(t, w.empty())
}
