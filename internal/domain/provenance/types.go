package provenance

import (
	"sort"

	"github.com/provlab/traceline/internal/signature"
)

// Principal is an opaque, pre-authenticated identity supplied by the
// environment. The ledger never issues or inspects principals beyond
// equality and emptiness.
type Principal string

// IsZero reports whether the principal is absent.
func (p Principal) IsZero() bool {
	return p == ""
}

// Registry ids are assigned monotonically starting at 1 and never reused,
// so the zero value always means "no reference".
type (
	// NodeID identifies a participating location.
	NodeID uint64
	// ItemID identifies a tracked entity.
	ItemID uint64
	// StepID identifies a recorded production event.
	StepID uint64
)

// Node is a participating location owning items and steps.
type Node struct {
	id          NodeID
	owner       Principal
	file        signature.Signature
	activeSteps int
	operators   map[Principal]struct{}
}

// ID returns the node id.
func (n *Node) ID() NodeID {
	return n.id
}

// Owner returns the principal that created the node. Ownership never
// transfers.
func (n *Node) Owner() Principal {
	return n.owner
}

// File returns the signature of the node's stored document.
func (n *Node) File() signature.Signature {
	return n.file
}

// ActiveStepCount returns the number of undeleted steps owned by the node.
func (n *Node) ActiveStepCount() int {
	return n.activeSteps
}

// HasOperator reports whether p is a delegated operator of the node.
func (n *Node) HasOperator(p Principal) bool {
	_, ok := n.operators[p]
	return ok
}

// Operators returns the delegated operators, sorted for determinism.
func (n *Node) Operators() []Principal {
	out := make([]Principal, 0, len(n.operators))
	for p := range n.operators {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// authorized reports whether p may act for the node: the owner or any
// delegated operator.
func (n *Node) authorized(p Principal) bool {
	return p == n.owner || n.HasOperator(p)
}

// Item is a tracked entity with one evolving provenance chain.
type Item struct {
	id       ItemID
	origin   NodeID
	file     signature.Signature
	lastStep StepID // 0 when the item has no steps yet
}

// ID returns the item id.
func (i *Item) ID() ItemID {
	return i.id
}

// OriginNode returns the node the item is rooted at. Immutable.
func (i *Item) OriginNode() NodeID {
	return i.origin
}

// File returns the signature of the item's stored document.
func (i *Item) File() signature.Signature {
	return i.file
}

// LastStep returns the item's frontier step, if any.
func (i *Item) LastStep() (StepID, bool) {
	return i.lastStep, i.lastStep != 0
}

// Step is one recorded production event advancing an item.
type Step struct {
	id            StepID
	node          NodeID
	item          ItemID
	file          signature.Signature
	precedents    []StepID
	approved      map[NodeID]struct{}
	approvalCount int
}

// ID returns the step id.
func (s *Step) ID() StepID {
	return s.id
}

// Node returns the node that recorded the step. Immutable.
func (s *Step) Node() NodeID {
	return s.node
}

// Item returns the item the step advances. Immutable.
func (s *Step) Item() ItemID {
	return s.item
}

// File returns the signature of the step's stored document.
func (s *Step) File() signature.Signature {
	return s.file
}

// Precedents returns a copy of the ordered precedent list. Immutable.
func (s *Step) Precedents() []StepID {
	out := make([]StepID, len(s.precedents))
	copy(out, s.precedents)
	return out
}

// IsApproved reports whether the named node holds an active approval to
// cite this step as a precedent.
func (s *Step) IsApproved(node NodeID) bool {
	_, ok := s.approved[node]
	return ok
}

// ApprovedNodes returns the nodes holding active approvals, sorted.
func (s *Step) ApprovedNodes() []NodeID {
	out := make([]NodeID, 0, len(s.approved))
	for id := range s.approved {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ApprovalCount returns the number of active approvals.
func (s *Step) ApprovalCount() int {
	return s.approvalCount
}
