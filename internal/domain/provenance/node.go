package provenance

import (
	"fmt"

	"github.com/provlab/traceline/internal/signature"
)

// AddNode registers a new participating location. Any principal may create
// a node and becomes its immutable owner. Records NodeAdded.
func (l *Ledger) AddNode(caller Principal, file signature.Signature) (NodeID, error) {
	if caller.IsZero() {
		return 0, fmt.Errorf("add node: %w: empty caller principal", ErrInvalidReference)
	}
	if !file.Valid() {
		return 0, fmt.Errorf("add node: %w", ErrInvalidFileSignature)
	}

	id := l.nextNode
	l.nextNode++
	l.nodes[id] = &Node{
		id:        id,
		owner:     caller,
		file:      file,
		operators: make(map[Principal]struct{}),
	}

	l.record(NodeAdded{Node: id, Owner: caller})
	return id, nil
}

// RemoveNode deletes a node. Only the owner may remove it, and only while
// it owns no active steps. Records NodeRemoved.
func (l *Ledger) RemoveNode(caller Principal, id NodeID) error {
	node, ok := l.nodes[id]
	if !ok {
		return fmt.Errorf("remove node %d: %w", id, ErrInvalidReference)
	}
	if caller != node.owner {
		return fmt.Errorf("remove node %d: %w: owner only", id, ErrUnauthorized)
	}
	if node.activeSteps > 0 {
		return fmt.Errorf("remove node %d: %w: %d active steps", id, ErrConstraintViolation, node.activeSteps)
	}

	delete(l.nodes, id)

	l.record(NodeRemoved{Node: id, Owner: caller})
	return nil
}

// SetOperator grants or revokes a principal's right to act for the node.
// Owner only. The membership change is idempotent, but NodeOpApproval is
// recorded on every call.
func (l *Ledger) SetOperator(caller Principal, id NodeID, operator Principal, approved bool) error {
	node, ok := l.nodes[id]
	if !ok {
		return fmt.Errorf("set operator on node %d: %w", id, ErrInvalidReference)
	}
	if caller != node.owner {
		return fmt.Errorf("set operator on node %d: %w: owner only", id, ErrUnauthorized)
	}
	if operator.IsZero() {
		return fmt.Errorf("set operator on node %d: %w: empty operator principal", id, ErrInvalidReference)
	}

	if approved {
		node.operators[operator] = struct{}{}
	} else {
		delete(node.operators, operator)
	}

	l.record(NodeOpApproval{Node: id, Operator: operator, Approved: approved})
	return nil
}

// authorized reports whether p may act for the named node. The node must
// exist.
func (l *Ledger) authorized(id NodeID, p Principal) (bool, error) {
	node, ok := l.nodes[id]
	if !ok {
		return false, fmt.Errorf("node %d: %w", id, ErrInvalidReference)
	}
	return node.authorized(p), nil
}
