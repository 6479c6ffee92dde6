package provenance

import (
	"testing"

	"github.com/provlab/traceline/internal/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode_CallerBecomesOwner(t *testing.T) {
	l, sink := newTestLedger()

	id, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)
	assert.Equal(t, NodeID(1), id)

	node, err := l.Node(id)
	require.NoError(t, err)
	assert.Equal(t, alice, node.Owner())
	assert.Equal(t, 0, node.ActiveStepCount())
	assert.Empty(t, node.Operators())
	assert.Equal(t, NodeAdded{Node: id, Owner: alice}, sink.last())
}

func TestAddNode_InvalidSignature(t *testing.T) {
	l, sink := newTestLedger()

	_, err := l.AddNode(alice, signature.Signature{})
	assert.ErrorIs(t, err, ErrInvalidFileSignature)
	assert.Empty(t, sink.events)
	assert.Equal(t, 0, l.NodeCount())
}

func TestAddNode_EmptyPrincipal(t *testing.T) {
	l, _ := newTestLedger()

	_, err := l.AddNode("", sig("n1"))
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestAddNode_IDsAreMonotonic(t *testing.T) {
	l, _ := newTestLedger()

	first, err := l.AddNode(alice, sig("a"))
	require.NoError(t, err)
	second, err := l.AddNode(bob, sig("b"))
	require.NoError(t, err)

	assert.Equal(t, first+1, second)
}

func TestRemoveNode_OwnerOnly(t *testing.T) {
	l, sink := newTestLedger()
	id, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)

	// An operator is not enough: removal is an ownership decision.
	require.NoError(t, l.SetOperator(alice, id, bob, true))
	err = l.RemoveNode(bob, id)
	assert.ErrorIs(t, err, ErrUnauthorized)

	sink.reset()
	require.NoError(t, l.RemoveNode(alice, id))
	assert.Equal(t, NodeRemoved{Node: id, Owner: alice}, sink.last())

	_, err = l.Node(id)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestRemoveNode_Unknown(t *testing.T) {
	l, _ := newTestLedger()

	err := l.RemoveNode(alice, 42)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestRemoveNode_BlockedByActiveSteps(t *testing.T) {
	l, _ := newTestLedger()
	node, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)
	item, err := l.AddItem(alice, node, sig("i1"))
	require.NoError(t, err)
	step, err := l.AddStep(alice, node, item, nil, sig("s1"))
	require.NoError(t, err)

	err = l.RemoveNode(alice, node)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	// Removing the step clears the way.
	require.NoError(t, l.RemoveStep(alice, step))
	require.NoError(t, l.RemoveItem(alice, item))
	assert.NoError(t, l.RemoveNode(alice, node))
}

func TestSetOperator_GrantAndRevoke(t *testing.T) {
	l, sink := newTestLedger()
	id, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)

	require.NoError(t, l.SetOperator(alice, id, bob, true))
	assert.Equal(t, NodeOpApproval{Node: id, Operator: bob, Approved: true}, sink.last())

	approved, err := l.IsOperator(alice, id, bob)
	require.NoError(t, err)
	assert.True(t, approved)

	require.NoError(t, l.SetOperator(alice, id, bob, false))
	approved, err = l.IsOperator(alice, id, bob)
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestSetOperator_IdempotentStateAlwaysEmits(t *testing.T) {
	l, sink := newTestLedger()
	id, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)

	sink.reset()
	require.NoError(t, l.SetOperator(alice, id, bob, true))
	require.NoError(t, l.SetOperator(alice, id, bob, true))
	assert.Len(t, sink.events, 2, "every SetOperator call emits, even without a transition")

	node, err := l.Node(id)
	require.NoError(t, err)
	assert.Equal(t, []Principal{bob}, node.Operators())
}

func TestSetOperator_Rejections(t *testing.T) {
	l, _ := newTestLedger()
	id, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		caller   Principal
		node     NodeID
		operator Principal
		want     error
	}{
		{"unknown node", alice, 99, bob, ErrInvalidReference},
		{"non-owner caller", bob, id, carol, ErrUnauthorized},
		{"empty operator", alice, id, "", ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.SetOperator(tt.caller, tt.node, tt.operator, true)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIsOperator_OwnerOnlyQuery(t *testing.T) {
	l, _ := newTestLedger()
	id, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)
	require.NoError(t, l.SetOperator(alice, id, bob, true))

	// Even the operator itself may not ask.
	_, err = l.IsOperator(bob, id, bob)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
