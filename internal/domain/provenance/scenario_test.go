package provenance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provlab/traceline/internal/domain/provenance"
	"github.com/provlab/traceline/internal/testutil"
)

// Cross-party merge: the warehouse cites the factory's approved step,
// pulling the batch's history into the crate's chain.
func TestScenario_CrossPartyMerge(t *testing.T) {
	b := testutil.NewBuilder(t).WithSupplyChainData()
	ledger := b.Build()

	warehouse := b.Node("warehouse")
	crate := b.Item("crate")
	machine := b.Step("machine")
	receive := b.Step("receive")

	merge, err := ledger.AddStep("bob", warehouse, crate, []provenance.StepID{receive, machine}, testutil.Sig("merge"))
	require.NoError(t, err)

	last, ok, err := ledger.LastStepOf(crate)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, merge, last)

	precedents, err := ledger.PrecedentsOf(merge)
	require.NoError(t, err)
	assert.Equal(t, []provenance.StepID{receive, machine}, precedents)
}

// Without an approval the same citation is rejected, and granting one
// through the owner turns it around.
func TestScenario_ApprovalGatesCitation(t *testing.T) {
	b := testutil.NewBuilder(t).
		WithNode("factory", "alice").
		WithNode("warehouse", "bob").
		WithItem("batch", "factory").
		WithItem("crate", "warehouse").
		WithStep("cast", "factory", "batch").
		WithStep("receive", "warehouse", "crate")
	ledger := b.Build()

	warehouse, crate := b.Node("warehouse"), b.Item("crate")
	cast, receive := b.Step("cast"), b.Step("receive")

	err := ledger.ValidateStep("bob", warehouse, crate, []provenance.StepID{receive, cast})
	assert.ErrorIs(t, err, provenance.ErrUnauthorized)

	require.NoError(t, ledger.SetApproval("alice", cast, warehouse, true))
	assert.NoError(t, ledger.ValidateStep("bob", warehouse, crate, []provenance.StepID{receive, cast}))
}

// The collector observes one event per accepted mutation, in order.
func TestScenario_CollectorObservesMutations(t *testing.T) {
	var sink testutil.Collector
	b := testutil.NewBuilder(t, provenance.WithEventSink(&sink)).
		WithNode("factory", "alice").
		WithItem("batch", "factory").
		WithStep("cast", "factory", "batch")

	events := sink.Events()
	require.Len(t, events, 3)
	assert.Equal(t, provenance.EventNodeAdded, events[0].Kind())
	assert.Equal(t, provenance.EventItemAdded, events[1].Kind())
	assert.Equal(t, provenance.EventStepAdded, events[2].Kind())
	assert.Equal(t, provenance.EventStepAdded, sink.Last().Kind())

	ledger := b.Build()
	require.NoError(t, ledger.RemoveStep("alice", b.Step("cast")))
	assert.Equal(t, provenance.EventStepRemoved, sink.Last().Kind())
	assert.Equal(t, 4, sink.Len())
}
