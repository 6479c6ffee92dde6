package provenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestAccess_PureNotification(t *testing.T) {
	g := newGraph(t)
	s1, err := g.l.AddStep(alice, g.n1, g.i1, nil, sig("a1"))
	require.NoError(t, err)

	before := g.l.Snapshot()
	g.sink.reset()

	require.NoError(t, g.l.RequestAccess(bob, s1, g.n2))
	assert.Equal(t, StepRequest{Step: s1, StepOwner: alice, RequestingNode: g.n2}, g.sink.last())
	assert.Equal(t, before, g.l.Snapshot(), "requests mutate nothing")

	// Requesting does not grant anything.
	approved, err := g.l.IsApprovedForStep(s1, g.n2)
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestRequestAccess_Rejections(t *testing.T) {
	g := newGraph(t)
	s1, err := g.l.AddStep(alice, g.n1, g.i1, nil, sig("a1"))
	require.NoError(t, err)

	err = g.l.RequestAccess(bob, s1, 99)
	assert.ErrorIs(t, err, ErrInvalidReference)

	// carol does not own n2; neither does an operator of it.
	require.NoError(t, g.l.SetOperator(bob, g.n2, carol, true))
	err = g.l.RequestAccess(carol, s1, g.n2)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = g.l.RequestAccess(bob, 99, g.n2)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestSetApproval_OwnerOnlyNotOperator(t *testing.T) {
	g := newGraph(t)
	s1, err := g.l.AddStep(alice, g.n1, g.i1, nil, sig("a1"))
	require.NoError(t, err)
	require.NoError(t, g.l.SetOperator(alice, g.n1, carol, true))

	// carol can add steps for n1 but may not decide cross-node trust.
	err = g.l.SetApproval(carol, s1, g.n2, true)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, g.l.SetApproval(alice, s1, g.n2, true))
	step, err := g.l.Step(s1)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{g.n2}, step.ApprovedNodes())
	assert.Equal(t, 1, step.ApprovalCount())
}

func TestSetApproval_CountMovesOnlyOnTransition(t *testing.T) {
	g := newGraph(t)
	s1, err := g.l.AddStep(alice, g.n1, g.i1, nil, sig("a1"))
	require.NoError(t, err)

	g.sink.reset()
	require.NoError(t, g.l.SetApproval(alice, s1, g.n2, true))
	require.NoError(t, g.l.SetApproval(alice, s1, g.n2, true))

	step, err := g.l.Step(s1)
	require.NoError(t, err)
	assert.Equal(t, 1, step.ApprovalCount(), "re-granting is not a transition")
	assert.Len(t, g.sink.events, 2, "every SetApproval call emits")

	require.NoError(t, g.l.SetApproval(alice, s1, g.n2, false))
	require.NoError(t, g.l.SetApproval(alice, s1, g.n2, false))
	step, err = g.l.Step(s1)
	require.NoError(t, err)
	assert.Equal(t, 0, step.ApprovalCount(), "count floors at zero")
}

func TestSetApproval_Rejections(t *testing.T) {
	g := newGraph(t)
	s1, err := g.l.AddStep(alice, g.n1, g.i1, nil, sig("a1"))
	require.NoError(t, err)

	err = g.l.SetApproval(alice, 99, g.n2, true)
	assert.ErrorIs(t, err, ErrInvalidReference)

	err = g.l.SetApproval(alice, s1, 99, true)
	assert.ErrorIs(t, err, ErrInvalidReference)

	err = g.l.SetApproval(bob, s1, g.n2, true)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
