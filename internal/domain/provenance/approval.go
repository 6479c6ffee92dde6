package provenance

import "fmt"

// RequestAccess notifies the owner of a step's node that another node
// wants extension rights against that step. The caller must own the
// requesting node. This is a pure notification: no ledger state changes,
// and the owner acts on it out of band via SetApproval. Records
// StepRequest.
func (l *Ledger) RequestAccess(caller Principal, step StepID, requesting NodeID) error {
	reqNode, ok := l.nodes[requesting]
	if !ok {
		return fmt.Errorf("request access: node %d: %w", requesting, ErrInvalidReference)
	}
	if caller != reqNode.owner {
		return fmt.Errorf("request access for node %d: %w: owner only", requesting, ErrUnauthorized)
	}
	s, ok := l.steps[step]
	if !ok {
		return fmt.Errorf("request access: step %d: %w", step, ErrInvalidReference)
	}
	stepOwner := l.nodes[s.node].owner

	l.record(StepRequest{Step: step, StepOwner: stepOwner, RequestingNode: requesting})
	return nil
}

// SetApproval grants or revokes a foreign node's right to cite the step as
// a precedent. Cross-node trust decisions are reserved to the owning
// principal: the caller must be the owner of the step's node, not merely
// an operator. The approval count moves only on an actual membership
// transition and is floored at zero, but StepApproval is recorded on every
// call.
//
// Approvals are consulted only at the moment a dependent step is created;
// revoking one never invalidates steps already recorded against it.
func (l *Ledger) SetApproval(caller Principal, step StepID, node NodeID, approved bool) error {
	s, ok := l.steps[step]
	if !ok {
		return fmt.Errorf("set approval on step %d: %w", step, ErrInvalidReference)
	}
	if _, ok := l.nodes[node]; !ok {
		return fmt.Errorf("set approval on step %d: node %d: %w", step, node, ErrInvalidReference)
	}
	owner := l.nodes[s.node].owner
	if caller != owner {
		return fmt.Errorf("set approval on step %d: %w: owner of node %d only", step, ErrUnauthorized, s.node)
	}

	_, member := s.approved[node]
	switch {
	case approved && !member:
		s.approved[node] = struct{}{}
		s.approvalCount++
	case !approved && member:
		delete(s.approved, node)
		if s.approvalCount > 0 {
			s.approvalCount--
		}
	}

	l.record(StepApproval{Step: step, Approver: caller, Node: node, Approved: approved})
	return nil
}
