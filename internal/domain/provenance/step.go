package provenance

import (
	"fmt"

	"github.com/provlab/traceline/internal/signature"
)

// ValidateStep checks whether the caller could record a new step on the
// given node and item with the given precedents. It is side-effect-free
// and deterministic against an unchanged ledger, so it is safe as a dry
// run before AddStep. A nil return means the step would be accepted; the
// returned error wraps the taxonomy sentinel naming the first failed check.
//
// The checks, in order:
//  1. The node and item must exist.
//  2. The caller must be the node's owner or an operator.
//  3. Every precedent must exist, must currently be the frontier of its
//     own item (superseded steps are closed off), and must be either owned
//     by the extending node or approved for it.
//  4. The continuation rule: if the item already has a frontier, exactly
//     one precedent must equal it; if the item is stepless, no precedent
//     may belong to it. Precedents of other items are unconstrained and
//     express cross-item merges.
func (l *Ledger) ValidateStep(caller Principal, node NodeID, item ItemID, precedents []StepID) error {
	n, ok := l.nodes[node]
	if !ok {
		return fmt.Errorf("validate step: node %d: %w", node, ErrInvalidReference)
	}
	it, ok := l.items[item]
	if !ok {
		return fmt.Errorf("validate step: item %d: %w", item, ErrInvalidReference)
	}
	if !n.authorized(caller) {
		return fmt.Errorf("validate step on node %d: %w", node, ErrUnauthorized)
	}

	itemRepeat := 0
	for _, p := range precedents {
		prev, ok := l.steps[p]
		if !ok {
			return fmt.Errorf("validate step: precedent %d: %w", p, ErrInvalidReference)
		}
		prevItem := l.items[prev.item]
		if prevItem == nil || prevItem.lastStep != p {
			return fmt.Errorf("validate step: precedent %d: %w: superseded, not a frontier", p, ErrConstraintViolation)
		}
		if prev.node != node && !prev.IsApproved(node) {
			return fmt.Errorf("validate step: precedent %d: %w: node %d holds no approval", p, ErrUnauthorized, node)
		}
		if prev.item == item {
			itemRepeat++
		}
	}

	if it.lastStep != 0 {
		if itemRepeat != 1 {
			return fmt.Errorf("validate step: item %d: %w: frontier %d must appear exactly once among precedents, counted %d",
				item, ErrConstraintViolation, it.lastStep, itemRepeat)
		}
	} else if itemRepeat != 0 {
		return fmt.Errorf("validate step: item %d: %w: stepless item cannot continue a precedent", item, ErrConstraintViolation)
	}

	return nil
}

// AddStep records a new production event. It requires a valid file
// signature and a passing ValidateStep on the same arguments; nothing is
// mutated until every check has passed. The new step becomes the item's
// frontier, superseding the previous one, and the owning node's active
// step count rises. Records StepAdded.
func (l *Ledger) AddStep(caller Principal, node NodeID, item ItemID, precedents []StepID, file signature.Signature) (StepID, error) {
	if !file.Valid() {
		return 0, fmt.Errorf("add step on node %d: %w", node, ErrInvalidFileSignature)
	}
	if err := l.ValidateStep(caller, node, item, precedents); err != nil {
		return 0, fmt.Errorf("add step: %w", err)
	}

	id := l.nextStep
	l.nextStep++
	prec := make([]StepID, len(precedents))
	copy(prec, precedents)
	l.steps[id] = &Step{
		id:         id,
		node:       node,
		item:       item,
		file:       file,
		precedents: prec,
		approved:   make(map[NodeID]struct{}),
	}
	l.items[item].lastStep = id
	l.nodes[node].activeSteps++

	l.record(StepAdded{Step: id, Node: node, Item: item})
	return id, nil
}

// RemoveStep deletes a step and rewinds its item's frontier. Only the
// frontier step of an item is removable (interior steps stay immutable
// because later steps reference them), only by a principal authorized on
// the owning node, and only while no foreign node holds an approval
// against it. Records StepRemoved.
//
// The continuation rule guarantees at most one precedent shares the
// removed step's item; the frontier rewinds to that precedent, or to none.
// Historical data violating that guarantee is surfaced as a constraint
// violation rather than silently resolved.
func (l *Ledger) RemoveStep(caller Principal, id StepID) error {
	step, ok := l.steps[id]
	if !ok {
		return fmt.Errorf("remove step %d: %w", id, ErrInvalidReference)
	}
	authorized, err := l.authorized(step.node, caller)
	if err != nil {
		return fmt.Errorf("remove step %d: %w", id, err)
	}
	if !authorized {
		return fmt.Errorf("remove step %d: %w", id, ErrUnauthorized)
	}
	item := l.items[step.item]
	if item == nil || item.lastStep != id {
		return fmt.Errorf("remove step %d: %w: not the frontier of item %d", id, ErrConstraintViolation, step.item)
	}
	if step.approvalCount > 0 {
		return fmt.Errorf("remove step %d: %w: %d approvals outstanding", id, ErrConstraintViolation, step.approvalCount)
	}

	var rewind StepID
	sameItem := 0
	for _, p := range step.precedents {
		if prev, ok := l.steps[p]; ok && prev.item == step.item {
			sameItem++
			rewind = p
		}
	}
	if sameItem > 1 {
		// Can only happen if a step bypassed the continuation rule; refuse
		// to guess which branch the frontier should rewind to.
		return fmt.Errorf("remove step %d: %w: %d same-item precedents, expected at most one", id, ErrConstraintViolation, sameItem)
	}

	item.lastStep = rewind
	if node := l.nodes[step.node]; node != nil && node.activeSteps > 0 {
		node.activeSteps--
	}
	delete(l.steps, id)

	l.record(StepRemoved{Step: id, Node: step.node, Item: step.item})
	return nil
}
