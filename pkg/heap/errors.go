package heap

import "errors"

// Recoverable, mutator-facing errors (§7). Internal invariant
// violations panic instead — see dataModelViolation in node.go.
var (
	// ErrConsExhausted is fatal to the calling allocation (but
	// recoverable by the host's non-local exit) when a full collection
	// still cannot free a node slot.
	ErrConsExhausted = errors.New("heap: cons memory exhausted")
	// ErrVectorExhausted mirrors ErrConsExhausted for vector cells.
	ErrVectorExhausted = errors.New("heap: vector memory exhausted")
	// ErrVectorTooLarge is signalled before any heap mutation when a
	// requested vector length overflows the cell-count arithmetic.
	ErrVectorTooLarge = errors.New("heap: vector size would overflow")
	// ErrNegativeLength is signalled before any heap mutation.
	ErrNegativeLength = errors.New("heap: negative vector length")

	// ErrStackOverflow is fatal on protect(); by contract its path
	// must not itself allocate.
	ErrStackOverflow = errors.New("heap: protect stack overflow")
	// ErrStackImbalance is fatal on unprotect(k) with k exceeding the
	// stack depth.
	ErrStackImbalance = errors.New("heap: protect stack imbalance")
	// ErrPointerNotFound is fatal on unprotect_ptr when the pointer is
	// not on the stack.
	ErrPointerNotFound = errors.New("heap: unprotect_ptr: pointer not found")

	// ErrInvalidFinalizerTarget/ErrInvalidFinalizerFunc: invalid
	// registration, signalled to the caller, no state change.
	ErrInvalidFinalizerTarget = errors.New("heap: finalizer target must be an environment or external pointer")
	ErrInvalidFinalizerFunc   = errors.New("heap: finalizer must be callable or a C-style function value")

	// ErrRawStackFull bounds the legacy secondary C-allocation table
	// (§9 "Open questions" — capacity preserved, grown from 100).
	ErrRawStackFull = errors.New("heap: raw allocation stack exhausted")
)
