// Package heap implements a non-moving, generational, mark-sweep
// collector for a small dynamic-language runtime: cons cells,
// environments, promises, symbols, closures and typed vectors all
// share one node representation.
package heap

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag selects which variant a Node's payload fields hold.
type Tag uint8

const (
	TagNil Tag = iota
	TagSymbol
	TagPair     // list cell (car/cdr)
	TagLanguage // call form, same layout as a pair
	TagDotted   // improper list tail, same layout as a pair
	TagClosure
	TagEnvironment
	TagPromise
	TagBuiltin
	TagSpecial
	TagCharString
	TagLogicalVector
	TagIntVector
	TagRealVector
	TagComplexVector
	TagStringVector
	TagExpressionVector
	TagGenericVector
	TagExternalPtr
)

func (t Tag) String() string {
	switch t {
	case TagNil:
		return "NIL"
	case TagSymbol:
		return "SYMBOL"
	case TagPair:
		return "PAIR"
	case TagLanguage:
		return "LANGUAGE"
	case TagDotted:
		return "DOTTED"
	case TagClosure:
		return "CLOSURE"
	case TagEnvironment:
		return "ENVIRONMENT"
	case TagPromise:
		return "PROMISE"
	case TagBuiltin:
		return "BUILTIN"
	case TagSpecial:
		return "SPECIAL"
	case TagCharString:
		return "CHARSTRING"
	case TagLogicalVector:
		return "LOGICAL"
	case TagIntVector:
		return "INTEGER"
	case TagRealVector:
		return "REAL"
	case TagComplexVector:
		return "COMPLEX"
	case TagStringVector:
		return "STRING"
	case TagExpressionVector:
		return "EXPRESSION"
	case TagGenericVector:
		return "VECTOR"
	case TagExternalPtr:
		return "EXTPTR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

// isVector reports whether a tag's storage is a typed vector, i.e.
// has a length and per-element payload rather than the three-slot
// pair layout.
func (t Tag) isVector() bool {
	switch t {
	case TagLogicalVector, TagIntVector, TagRealVector, TagComplexVector,
		TagStringVector, TagExpressionVector, TagGenericVector, TagCharString:
		return true
	default:
		return false
	}
}

// complexVal is a pair of float64 (real, imaginary).
type complexVal [2]float64

// Node is the single, fixed-shape representation shared by every heap
// object. Collector-owned bookkeeping (marked/generation/class/next/prev)
// lives alongside mutator-visible payload fields; which payload fields
// are meaningful is determined entirely by Tag, never by Go's dynamic
// type system.
type Node struct {
	Tag Tag

	// collector-owned header bits, cleared/rewritten only by the
	// collector itself (§3 "Node header").
	marked     bool
	generation uint8
	class      uint8
	next       *Node
	prev       *Node
	onOldToNew bool // true while container sits on OldToNew[class][gen]

	// mutator-visible flags (gp/named/debug/trace/missing in the spec).
	GP      bool
	Named   bool
	Debug   bool
	Trace   bool
	Missing bool

	Attrib *Node

	// Three-slot layout reused by pair, language, dotted, closure,
	// promise and symbol (§4.1).
	PairTag *Node // symbol: unused; closure: cloenv; promise: env
	Car     *Node // pair/language/dotted: car; closure: formals; promise: value
	Cdr     *Node // pair/language/dotted: cdr; closure: body; promise: expr

	// symbol-only
	Printname string
	DDVal     int

	// promise-only
	Forced bool

	// environment-only
	Frame   *Node
	Enclos  *Node
	Hashtab *Node

	// builtin/special-only, not a reference so not enumerated
	Offset int
	Name   string

	// external-pointer-only
	Raw    interface{}
	ExtTag *Node
	Prot   *Node

	// vector payload, shared by every vector variant
	Length     int
	TrueLength int
	Bytes      []byte        // TagCharString
	Logicals   []int32       // TagLogicalVector
	Ints       []int32       // TagIntVector
	Reals      []float64     // TagRealVector
	Complexes  []complexVal  // TagComplexVector
	Elems      []*Node       // TagStringVector/TagExpressionVector/TagGenericVector
}

// Marked, Generation and Class expose the collector-owned header bits
// read-only outside the package; inside it, the allocator, collector,
// barrier, sweep and finalizer code write the fields directly.
func (n *Node) Marked() bool        { return n.marked }
func (n *Node) Generation() uint8   { return n.generation }
func (n *Node) Class() uint8        { return n.class }

// dataModelViolation is raised (via panic) when the child enumerator
// or report sees a tag it does not recognize — a torn object, not a
// user error (§4.1, §7).
type dataModelViolation struct {
	tag Tag
}

func (e dataModelViolation) Error() string {
	return fmt.Sprintf("heap: data model violation: unknown tag %s", e.tag)
}

// EachChild calls visit for every outgoing reference of n, in the
// deterministic order required by §4.1. It never branches on address,
// only on n.Tag.
func EachChild(n *Node, visit func(*Node)) {
	if n.Attrib != nil {
		visit(n.Attrib)
	}
	switch n.Tag {
	case TagNil, TagBuiltin, TagSpecial, TagCharString,
		TagLogicalVector, TagIntVector, TagRealVector, TagComplexVector:
		// attrib only
	case TagStringVector, TagExpressionVector, TagGenericVector:
		for i := 0; i < n.Length; i++ {
			if n.Elems[i] != nil {
				visit(n.Elems[i])
			}
		}
	case TagEnvironment:
		if n.Frame != nil {
			visit(n.Frame)
		}
		if n.Enclos != nil {
			visit(n.Enclos)
		}
		if n.Hashtab != nil {
			visit(n.Hashtab)
		}
	case TagClosure, TagPromise, TagPair, TagLanguage, TagDotted, TagSymbol:
		if n.PairTag != nil {
			visit(n.PairTag)
		}
		if n.Car != nil {
			visit(n.Car)
		}
		if n.Cdr != nil {
			visit(n.Cdr)
		}
	case TagExternalPtr:
		if n.Prot != nil {
			visit(n.Prot)
		}
		if n.ExtTag != nil {
			visit(n.ExtTag)
		}
	default:
		panic(dataModelViolation{n.Tag})
	}
}

// String renders a node the way a REPL would print it; used by the
// report/profile tooling, never on the allocation hot path.
func (n *Node) String() string {
	if n == nil {
		return "nil"
	}
	switch n.Tag {
	case TagNil:
		return "()"
	case TagSymbol:
		return n.Printname
	case TagPair, TagLanguage, TagDotted:
		return pairToString(n)
	case TagClosure:
		return "#<closure>"
	case TagEnvironment:
		return "#<environment>"
	case TagPromise:
		return "#<promise>"
	case TagBuiltin:
		return fmt.Sprintf("#<builtin %s>", n.Name)
	case TagSpecial:
		return fmt.Sprintf("#<special %s>", n.Name)
	case TagCharString:
		return strconv.Quote(string(n.Bytes))
	case TagLogicalVector:
		return fmt.Sprintf("#<logical[%d]>", n.Length)
	case TagIntVector:
		return fmt.Sprintf("#<integer[%d]>", n.Length)
	case TagRealVector:
		return fmt.Sprintf("#<real[%d]>", n.Length)
	case TagComplexVector:
		return fmt.Sprintf("#<complex[%d]>", n.Length)
	case TagStringVector:
		return fmt.Sprintf("#<string[%d]>", n.Length)
	case TagExpressionVector:
		return fmt.Sprintf("#<expression[%d]>", n.Length)
	case TagGenericVector:
		return fmt.Sprintf("#<list[%d]>", n.Length)
	case TagExternalPtr:
		return "#<external-ptr>"
	default:
		return "?"
	}
}

func pairToString(n *Node) string {
	var sb strings.Builder
	sb.WriteByte('(')
	cur := n
	first := true
	for cur != nil && cur.Tag != TagNil {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.WriteString(cur.Car.String())
		cur = cur.Cdr
	}
	sb.WriteByte(')')
	return sb.String()
}
