package heap

// Node classes (§3 "Node classes"). Class 0 is the fixed-size
// non-vector slot; classes 1..NumSmallNodeClasses-1 are vector slots sized
// to hold a predetermined number of vector cells; ClassLarge is the
// sentinel for individually heap-allocated objects.
const (
	ClassNonVector = 0
	NumSmallNodeClasses = 7 // classes 0..6
	ClassLarge          = NumSmallNodeClasses
	NumNodeClasses       = NumSmallNodeClasses + 1
)

// vectorCellCounts[c] is the number of vector-cells a class-c slot
// holds, for c in 1..NumSmallNodeClasses-1. Class 0 holds none (it is
// the non-vector node size class).
var vectorCellCounts = [NumSmallNodeClasses]int{0, 1, 2, 4, 6, 8, 16}

// cellSize is the byte size of a single vector cell: large enough to
// hold the widest scalar element a typed vector stores (a complex
// value, two float64s).
const cellSize = 16

// nodeHeaderSize approximates the byte footprint of the fixed Node
// header shared by every variant; used only to size pages, never to
// lay out real memory (Go already manages that for us).
const nodeHeaderSize = 64

// slotSize returns the simulated byte footprint of one slot in class c.
func slotSize(c int) int {
	if c == ClassNonVector {
		return nodeHeaderSize
	}
	return nodeHeaderSize + vectorCellCounts[c]*cellSize
}

// sizeInCells converts a requested element count for tag t into
// vector-cells, using the per-type size rule of §4.3 (BYTE2VEC,
// INT2VEC, PTR2VEC analogues).
func sizeInCells(t Tag, length int) int {
	switch t {
	case TagCharString:
		return bytesToCells(length)
	case TagLogicalVector, TagIntVector:
		return int32ToCells(length)
	case TagRealVector:
		return float64ToCells(length)
	case TagComplexVector:
		return complexToCells(length)
	case TagStringVector, TagExpressionVector, TagGenericVector:
		return ptrToCells(length)
	default:
		return 0
	}
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func bytesToCells(n int) int     { return ceilDiv(n+1, cellSize) } // +1 for NUL terminator
func int32ToCells(n int) int     { return ceilDiv(n*4, cellSize) }
func float64ToCells(n int) int   { return ceilDiv(n*8, cellSize) }
func complexToCells(n int) int   { return ceilDiv(n*16, cellSize) }
func ptrToCells(n int) int       { return ceilDiv(n*8, cellSize) }

// classFor picks the smallest node class whose slot accommodates
// cells vector-cells, or ClassLarge if none does (§4.3).
func classFor(cells int) int {
	if cells == 0 {
		return ClassNonVector
	}
	for c := 1; c < NumSmallNodeClasses; c++ {
		if vectorCellCounts[c] >= cells {
			return c
		}
	}
	return ClassLarge
}
