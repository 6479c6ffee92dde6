package provenance

import (
	"testing"

	"github.com/provlab/traceline/internal/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItem_OwnerAndOperator(t *testing.T) {
	l, sink := newTestLedger()
	node, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)
	require.NoError(t, l.SetOperator(alice, node, bob, true))

	byOwner, err := l.AddItem(alice, node, sig("i1"))
	require.NoError(t, err)
	assert.Equal(t, ItemAdded{Item: byOwner, Node: node}, sink.last())

	byOperator, err := l.AddItem(bob, node, sig("i2"))
	require.NoError(t, err)
	assert.Equal(t, byOwner+1, byOperator)

	item, err := l.Item(byOwner)
	require.NoError(t, err)
	assert.Equal(t, node, item.OriginNode())
	_, hasStep := item.LastStep()
	assert.False(t, hasStep, "new items start stepless")
}

// Spec scenario: a stranger to the node may not add items, and the node is
// untouched by the rejected call.
func TestAddItem_UnauthorizedLeavesStateUnchanged(t *testing.T) {
	l, sink := newTestLedger()
	node, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)

	before, err := l.Node(node)
	require.NoError(t, err)
	beforeOps := before.Operators()
	beforeCount := before.ActiveStepCount()
	sink.reset()

	_, err = l.AddItem(mal, node, sig("i1"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	after, err := l.Node(node)
	require.NoError(t, err)
	assert.Equal(t, beforeOps, after.Operators())
	assert.Equal(t, beforeCount, after.ActiveStepCount())
	assert.Equal(t, 0, l.ItemCount())
	assert.Empty(t, sink.events, "rejected calls emit nothing")
}

func TestAddItem_Rejections(t *testing.T) {
	l, _ := newTestLedger()
	node, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)

	_, err = l.AddItem(alice, 99, sig("i1"))
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = l.AddItem(alice, node, signature.Signature{})
	assert.ErrorIs(t, err, ErrInvalidFileSignature)
}

func TestRemoveItem_SteplessOnly(t *testing.T) {
	l, sink := newTestLedger()
	node, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)
	item, err := l.AddItem(alice, node, sig("i1"))
	require.NoError(t, err)
	step, err := l.AddStep(alice, node, item, nil, sig("s1"))
	require.NoError(t, err)

	err = l.RemoveItem(alice, item)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	require.NoError(t, l.RemoveStep(alice, step))
	sink.reset()
	require.NoError(t, l.RemoveItem(alice, item))
	assert.Equal(t, ItemRemoved{Item: item, Node: node}, sink.last())

	_, err = l.Item(item)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestRemoveItem_Rejections(t *testing.T) {
	l, _ := newTestLedger()
	node, err := l.AddNode(alice, sig("n1"))
	require.NoError(t, err)
	item, err := l.AddItem(alice, node, sig("i1"))
	require.NoError(t, err)

	err = l.RemoveItem(alice, 99)
	assert.ErrorIs(t, err, ErrInvalidReference)

	err = l.RemoveItem(mal, item)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
