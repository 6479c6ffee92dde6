package provenance

import (
	"fmt"

	"github.com/provlab/traceline/internal/signature"
)

// Snapshot is a full export of ledger state for persistence: the three
// id-keyed tables, the derived indices (last step, active step count), and
// the next-id counters. Counters travel with the data so a restored ledger
// can never recycle an id issued before the snapshot.
type Snapshot struct {
	Nodes []NodeRecord
	Items []ItemRecord
	Steps []StepRecord

	NextNode NodeID
	NextItem ItemID
	NextStep StepID
}

// NodeRecord is the flat persisted form of a Node.
type NodeRecord struct {
	ID          NodeID
	Owner       Principal
	File        signature.Signature
	ActiveSteps int
	Operators   []Principal
}

// ItemRecord is the flat persisted form of an Item. LastStep zero means
// the item is stepless.
type ItemRecord struct {
	ID       ItemID
	Origin   NodeID
	File     signature.Signature
	LastStep StepID
}

// StepRecord is the flat persisted form of a Step.
type StepRecord struct {
	ID         StepID
	Node       NodeID
	Item       ItemID
	File       signature.Signature
	Precedents []StepID
	Approved   []NodeID
}

// Record returns the node's flat persisted form.
func (n *Node) Record() NodeRecord {
	return NodeRecord{
		ID:          n.id,
		Owner:       n.owner,
		File:        n.file,
		ActiveSteps: n.activeSteps,
		Operators:   n.Operators(),
	}
}

// Record returns the item's flat persisted form.
func (i *Item) Record() ItemRecord {
	return ItemRecord{
		ID:       i.id,
		Origin:   i.origin,
		File:     i.file,
		LastStep: i.lastStep,
	}
}

// Record returns the step's flat persisted form.
func (s *Step) Record() StepRecord {
	return StepRecord{
		ID:         s.id,
		Node:       s.node,
		Item:       s.item,
		File:       s.file,
		Precedents: s.Precedents(),
		Approved:   s.ApprovedNodes(),
	}
}

// Counters returns the next-id counters.
func (l *Ledger) Counters() (NodeID, ItemID, StepID) {
	return l.nextNode, l.nextItem, l.nextStep
}

// Snapshot exports the full ledger state. Records are ordered by id.
func (l *Ledger) Snapshot() Snapshot {
	snap := Snapshot{
		NextNode: l.nextNode,
		NextItem: l.nextItem,
		NextStep: l.nextStep,
	}
	for _, id := range l.Nodes() {
		snap.Nodes = append(snap.Nodes, l.nodes[id].Record())
	}
	for _, id := range l.Items() {
		snap.Items = append(snap.Items, l.items[id].Record())
	}
	for _, id := range l.Steps() {
		snap.Steps = append(snap.Steps, l.steps[id].Record())
	}
	return snap
}

// FromSnapshot reconstitutes a ledger from persisted state. Stored data is
// trusted as having been written through a validating ledger; only
// structural integrity is re-checked (duplicate ids, dangling origin and
// step references, counters behind issued ids).
func FromSnapshot(snap Snapshot, opts ...Option) (*Ledger, error) {
	l := New(opts...)

	for _, rec := range snap.Nodes {
		if rec.ID == 0 {
			return nil, fmt.Errorf("from snapshot: node id 0: %w", ErrInvalidReference)
		}
		if _, dup := l.nodes[rec.ID]; dup {
			return nil, fmt.Errorf("from snapshot: duplicate node %d: %w", rec.ID, ErrConstraintViolation)
		}
		node := &Node{
			id:          rec.ID,
			owner:       rec.Owner,
			file:        rec.File,
			activeSteps: rec.ActiveSteps,
			operators:   make(map[Principal]struct{}, len(rec.Operators)),
		}
		for _, op := range rec.Operators {
			node.operators[op] = struct{}{}
		}
		l.nodes[rec.ID] = node
		if rec.ID >= l.nextNode {
			l.nextNode = rec.ID + 1
		}
	}

	for _, rec := range snap.Items {
		if rec.ID == 0 {
			return nil, fmt.Errorf("from snapshot: item id 0: %w", ErrInvalidReference)
		}
		if _, dup := l.items[rec.ID]; dup {
			return nil, fmt.Errorf("from snapshot: duplicate item %d: %w", rec.ID, ErrConstraintViolation)
		}
		// Origin is not checked against the node table: it records where the
		// item was introduced, and that node may have been removed since.
		l.items[rec.ID] = &Item{
			id:       rec.ID,
			origin:   rec.Origin,
			file:     rec.File,
			lastStep: rec.LastStep,
		}
		if rec.ID >= l.nextItem {
			l.nextItem = rec.ID + 1
		}
	}

	for _, rec := range snap.Steps {
		if rec.ID == 0 {
			return nil, fmt.Errorf("from snapshot: step id 0: %w", ErrInvalidReference)
		}
		if _, dup := l.steps[rec.ID]; dup {
			return nil, fmt.Errorf("from snapshot: duplicate step %d: %w", rec.ID, ErrConstraintViolation)
		}
		if _, ok := l.nodes[rec.Node]; !ok {
			return nil, fmt.Errorf("from snapshot: step %d node %d: %w", rec.ID, rec.Node, ErrInvalidReference)
		}
		if _, ok := l.items[rec.Item]; !ok {
			return nil, fmt.Errorf("from snapshot: step %d item %d: %w", rec.ID, rec.Item, ErrInvalidReference)
		}
		step := &Step{
			id:            rec.ID,
			node:          rec.Node,
			item:          rec.Item,
			file:          rec.File,
			precedents:    append([]StepID(nil), rec.Precedents...),
			approved:      make(map[NodeID]struct{}, len(rec.Approved)),
			approvalCount: len(rec.Approved),
		}
		for _, n := range rec.Approved {
			step.approved[n] = struct{}{}
		}
		l.steps[rec.ID] = step
		if rec.ID >= l.nextStep {
			l.nextStep = rec.ID + 1
		}
	}

	if snap.NextNode > l.nextNode {
		l.nextNode = snap.NextNode
	}
	if snap.NextItem > l.nextItem {
		l.nextItem = snap.NextItem
	}
	if snap.NextStep > l.nextStep {
		l.nextStep = snap.NextStep
	}

	return l, nil
}
