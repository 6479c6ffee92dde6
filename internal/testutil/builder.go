// Package testutil provides ledger fixtures and database helpers for tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/provlab/traceline/internal/domain/provenance"
	"github.com/provlab/traceline/internal/signature"
)

// Sig returns a deterministic valid file signature for a label.
func Sig(label string) signature.Signature {
	return signature.Sum([]byte(label))
}

// Builder assembles ledger state through the real operations, failing the
// test on any rejected call. Records are referred to by alias so fixtures
// read as graphs, not id arithmetic.
type Builder struct {
	t      *testing.T
	ledger *provenance.Ledger

	nodes  map[string]provenance.NodeID
	owners map[string]provenance.Principal
	items  map[string]provenance.ItemID
	steps  map[string]provenance.StepID
}

// NewBuilder creates a builder over a fresh ledger. Options are passed
// through to the ledger constructor.
func NewBuilder(t *testing.T, opts ...provenance.Option) *Builder {
	t.Helper()
	return &Builder{
		t:      t,
		ledger: provenance.New(opts...),
		nodes:  make(map[string]provenance.NodeID),
		owners: make(map[string]provenance.Principal),
		items:  make(map[string]provenance.ItemID),
		steps:  make(map[string]provenance.StepID),
	}
}

// WithNode registers a node under alias, owned by owner.
func (b *Builder) WithNode(alias string, owner provenance.Principal) *Builder {
	b.t.Helper()
	id, err := b.ledger.AddNode(owner, Sig("node/"+alias))
	require.NoError(b.t, err)
	b.nodes[alias] = id
	b.owners[alias] = owner
	return b
}

// WithOperator delegates operator on the aliased node, acting as its owner.
func (b *Builder) WithOperator(nodeAlias string, operator provenance.Principal) *Builder {
	b.t.Helper()
	require.NoError(b.t, b.ledger.SetOperator(b.owners[nodeAlias], b.Node(nodeAlias), operator, true))
	return b
}

// WithItem registers an item under alias at the aliased node, acting as the
// node's owner.
func (b *Builder) WithItem(alias, nodeAlias string) *Builder {
	b.t.Helper()
	id, err := b.ledger.AddItem(b.owners[nodeAlias], b.Node(nodeAlias), Sig("item/"+alias))
	require.NoError(b.t, err)
	b.items[alias] = id
	return b
}

// WithStep records a step under alias at the aliased node advancing the
// aliased item, citing the aliased precedent steps in order.
func (b *Builder) WithStep(alias, nodeAlias, itemAlias string, precedentAliases ...string) *Builder {
	b.t.Helper()
	precedents := make([]provenance.StepID, 0, len(precedentAliases))
	for _, p := range precedentAliases {
		precedents = append(precedents, b.Step(p))
	}
	id, err := b.ledger.AddStep(b.owners[nodeAlias], b.Node(nodeAlias), b.items[itemAlias], precedents, Sig("step/"+alias))
	require.NoError(b.t, err)
	b.steps[alias] = id
	return b
}

// WithApproval grants the aliased node the right to cite the aliased step,
// acting as the owner of the step's node.
func (b *Builder) WithApproval(stepAlias, nodeAlias string) *Builder {
	b.t.Helper()
	step, err := b.ledger.Step(b.Step(stepAlias))
	require.NoError(b.t, err)
	var owner provenance.Principal
	for alias, id := range b.nodes {
		if id == step.Node() {
			owner = b.owners[alias]
		}
	}
	require.False(b.t, owner.IsZero(), "step %s belongs to an unaliased node", stepAlias)
	require.NoError(b.t, b.ledger.SetApproval(owner, b.Step(stepAlias), b.Node(nodeAlias), true))
	return b
}

// Build returns the assembled ledger.
func (b *Builder) Build() *provenance.Ledger {
	return b.ledger
}

// Node resolves a node alias, failing the test when unknown.
func (b *Builder) Node(alias string) provenance.NodeID {
	b.t.Helper()
	id, ok := b.nodes[alias]
	require.True(b.t, ok, "unknown node alias %q", alias)
	return id
}

// Item resolves an item alias, failing the test when unknown.
func (b *Builder) Item(alias string) provenance.ItemID {
	b.t.Helper()
	id, ok := b.items[alias]
	require.True(b.t, ok, "unknown item alias %q", alias)
	return id
}

// Step resolves a step alias, failing the test when unknown.
func (b *Builder) Step(alias string) provenance.StepID {
	b.t.Helper()
	id, ok := b.steps[alias]
	require.True(b.t, ok, "unknown step alias %q", alias)
	return id
}

// Owner returns the owning principal of the aliased node.
func (b *Builder) Owner(alias string) provenance.Principal {
	b.t.Helper()
	owner, ok := b.owners[alias]
	require.True(b.t, ok, "unknown node alias %q", alias)
	return owner
}
