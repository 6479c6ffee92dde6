package provenance

import (
	"fmt"

	"github.com/provlab/traceline/internal/signature"
)

// AddItem registers a tracked entity rooted at the given node. The caller
// must be the node's owner or an operator. The item starts with no frontier
// step. Records ItemAdded.
func (l *Ledger) AddItem(caller Principal, node NodeID, file signature.Signature) (ItemID, error) {
	ok, err := l.authorized(node, caller)
	if err != nil {
		return 0, fmt.Errorf("add item: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("add item on node %d: %w", node, ErrUnauthorized)
	}
	if !file.Valid() {
		return 0, fmt.Errorf("add item on node %d: %w", node, ErrInvalidFileSignature)
	}

	id := l.nextItem
	l.nextItem++
	l.items[id] = &Item{
		id:     id,
		origin: node,
		file:   file,
	}

	l.record(ItemAdded{Item: id, Node: node})
	return id, nil
}

// RemoveItem deletes an item. The caller must be authorized on the item's
// origin node, and the item must be stepless. Records ItemRemoved.
func (l *Ledger) RemoveItem(caller Principal, id ItemID) error {
	item, ok := l.items[id]
	if !ok {
		return fmt.Errorf("remove item %d: %w", id, ErrInvalidReference)
	}
	authorized, err := l.authorized(item.origin, caller)
	if err != nil {
		return fmt.Errorf("remove item %d: %w", id, err)
	}
	if !authorized {
		return fmt.Errorf("remove item %d: %w", id, ErrUnauthorized)
	}
	if item.lastStep != 0 {
		return fmt.Errorf("remove item %d: %w: item has steps", id, ErrConstraintViolation)
	}

	delete(l.items, id)

	l.record(ItemRemoved{Item: id, Node: item.origin})
	return nil
}
