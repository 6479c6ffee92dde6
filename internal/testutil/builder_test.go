package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provlab/traceline/internal/domain/provenance"
)

func TestBuilder_AliasesResolve(t *testing.T) {
	b := NewBuilder(t).
		WithNode("factory", "alice").
		WithItem("batch", "factory").
		WithStep("cast", "factory", "batch")

	l := b.Build()
	assert.Equal(t, 1, l.NodeCount())
	assert.Equal(t, 1, l.ItemCount())
	assert.Equal(t, 1, l.StepCount())

	last, ok, err := l.LastStepOf(b.Item("batch"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b.Step("cast"), last)
	assert.Equal(t, provenance.Principal("alice"), b.Owner("factory"))
}

func TestBuilder_CollectorSeesEvents(t *testing.T) {
	var collector Collector
	NewBuilder(t, provenance.WithEventSink(&collector)).
		WithNode("factory", "alice").
		WithItem("batch", "factory")

	require.Equal(t, 2, collector.Len())
	assert.Equal(t, provenance.EventNodeAdded, collector.Events()[0].Kind())
	assert.Equal(t, provenance.EventItemAdded, collector.Last().Kind())

	collector.Reset()
	assert.Zero(t, collector.Len())
	assert.Nil(t, collector.Last())
}

func TestWithSupplyChainData(t *testing.T) {
	b := NewBuilder(t).WithSupplyChainData()
	l := b.Build()

	assert.Equal(t, 2, l.NodeCount())
	assert.Equal(t, 2, l.ItemCount())
	assert.Equal(t, 3, l.StepCount())

	// The warehouse can cite the factory's frontier step directly.
	approved, err := l.IsApprovedForStep(b.Step("machine"), b.Node("warehouse"))
	require.NoError(t, err)
	assert.True(t, approved)

	require.NoError(t, l.ValidateStep("bob", b.Node("warehouse"), b.Item("crate"),
		[]provenance.StepID{b.Step("receive"), b.Step("machine")}))
}

func TestNewTestDB(t *testing.T) {
	db := NewTestDB(t)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&count))
	assert.Zero(t, count)
}
