package provenance

import (
	"fmt"
	"slices"
)

// Read-only queries. Returned entities expose only getter methods, so
// callers cannot mutate registry state through them.

// Node returns the node record for id.
func (l *Ledger) Node(id NodeID) (*Node, error) {
	node, ok := l.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, ErrInvalidReference)
	}
	return node, nil
}

// Item returns the item record for id.
func (l *Ledger) Item(id ItemID) (*Item, error) {
	item, ok := l.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, ErrInvalidReference)
	}
	return item, nil
}

// Step returns the step record for id, precedents included.
func (l *Ledger) Step(id StepID) (*Step, error) {
	step, ok := l.steps[id]
	if !ok {
		return nil, fmt.Errorf("step %d: %w", id, ErrInvalidReference)
	}
	return step, nil
}

// IsOperator reports whether p is a delegated operator of the node.
// Owner-only query: the caller must be the node's owner.
func (l *Ledger) IsOperator(caller Principal, node NodeID, p Principal) (bool, error) {
	n, ok := l.nodes[node]
	if !ok {
		return false, fmt.Errorf("node %d: %w", node, ErrInvalidReference)
	}
	if caller != n.owner {
		return false, fmt.Errorf("is operator on node %d: %w: owner only", node, ErrUnauthorized)
	}
	return n.HasOperator(p), nil
}

// LastStepOf returns the item's frontier step id, with ok=false when the
// item is stepless.
func (l *Ledger) LastStepOf(item ItemID) (StepID, bool, error) {
	it, exists := l.items[item]
	if !exists {
		return 0, false, fmt.Errorf("item %d: %w", item, ErrInvalidReference)
	}
	id, ok := it.LastStep()
	return id, ok, nil
}

// PrecedentsOf returns a copy of the step's ordered precedent list.
func (l *Ledger) PrecedentsOf(step StepID) ([]StepID, error) {
	s, ok := l.steps[step]
	if !ok {
		return nil, fmt.Errorf("step %d: %w", step, ErrInvalidReference)
	}
	return s.Precedents(), nil
}

// IsApprovedForStep reports whether the node may cite the step as a
// precedent: true for the owning node itself and for any node holding an
// active approval.
func (l *Ledger) IsApprovedForStep(step StepID, node NodeID) (bool, error) {
	s, ok := l.steps[step]
	if !ok {
		return false, fmt.Errorf("step %d: %w", step, ErrInvalidReference)
	}
	if s.node == node {
		return true, nil
	}
	return s.IsApproved(node), nil
}

// Nodes returns all live node ids in ascending order.
func (l *Ledger) Nodes() []NodeID {
	out := make([]NodeID, 0, len(l.nodes))
	for id := range l.nodes {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Items returns all live item ids in ascending order.
func (l *Ledger) Items() []ItemID {
	out := make([]ItemID, 0, len(l.items))
	for id := range l.items {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Steps returns all live step ids in ascending order.
func (l *Ledger) Steps() []StepID {
	out := make([]StepID, 0, len(l.steps))
	for id := range l.steps {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
