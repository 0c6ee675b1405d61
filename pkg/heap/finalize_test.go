package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFinalizerRejectsWrongTargetTag(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	n := h.AllocNode(TagSymbol)

	err := h.RegisterFinalizer(n, func(*Node) {}, false)

	assert.ErrorIs(t, err, ErrInvalidFinalizerTarget)
}

func TestRegisterFinalizerRejectsNilFunc(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	env := h.NewEnvironment(h.Nil(), h.Nil())

	err := h.RegisterFinalizer(env, nil, false)

	assert.ErrorIs(t, err, ErrInvalidFinalizerFunc)
}

func TestFinalizerRunsOnceWhenTargetBecomesUnreachable(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	env := h.NewEnvironment(h.Nil(), h.Nil()) // not protected: dies as soon as nothing else roots it

	ran := 0
	require.NoError(t, h.RegisterFinalizer(env, func(target *Node) {
		ran++
		assert.Same(t, env, target)
	}, false))

	h.ForceFullCollection()

	assert.Equal(t, 1, ran)

	h.ForceFullCollection()
	assert.Equal(t, 1, ran, "a finalizer runs at most once")
}

func TestFinalizerDoesNotRunWhileTargetStillRooted(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	env := h.Protect(h.NewEnvironment(h.Nil(), h.Nil()))

	ran := 0
	require.NoError(t, h.RegisterFinalizer(env, func(*Node) { ran++ }, false))

	h.ForceFullCollection()

	assert.Equal(t, 0, ran)
}

func TestUnregisterFinalizerPreventsInvocation(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	env := h.NewEnvironment(h.Nil(), h.Nil())

	ran := 0
	require.NoError(t, h.RegisterFinalizer(env, func(*Node) { ran++ }, false))
	h.UnregisterFinalizer(env)

	h.ForceFullCollection()

	assert.Equal(t, 0, ran)
}

func TestRunExitFinalizersIgnoresReachability(t *testing.T) {
	h := NewHeap(DefaultConfig(), nil)
	env := h.Protect(h.NewEnvironment(h.Nil(), h.Nil()))

	ran := 0
	require.NoError(t, h.RegisterFinalizer(env, func(*Node) { ran++ }, true))

	h.RunExitFinalizers()

	assert.Equal(t, 1, ran)
}
