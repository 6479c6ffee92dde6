package ledgersvc

import (
	"context"

	"github.com/provlab/traceline/internal/domain/provenance"
)

// Cache loaders. Each takes the service mutex, so a miss observes a
// consistent ledger state.

func (s *Service) loadNodeRecord(ctx context.Context, id provenance.NodeID) (provenance.NodeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, err := s.ledger.Node(id)
	if err != nil {
		return provenance.NodeRecord{}, err
	}
	return node.Record(), nil
}

func (s *Service) loadItemRecord(ctx context.Context, id provenance.ItemID) (provenance.ItemRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, err := s.ledger.Item(id)
	if err != nil {
		return provenance.ItemRecord{}, err
	}
	return item.Record(), nil
}

func (s *Service) loadStepRecord(ctx context.Context, id provenance.StepID) (provenance.StepRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, err := s.ledger.Step(id)
	if err != nil {
		return provenance.StepRecord{}, err
	}
	return step.Record(), nil
}

// Node returns the node record for id, served read-through the cache.
func (s *Service) Node(ctx context.Context, id provenance.NodeID) (provenance.NodeRecord, error) {
	return s.nodes.Get(ctx, nodeKey(id), id, s.cacheTTL)
}

// Item returns the item record for id, served read-through the cache.
func (s *Service) Item(ctx context.Context, id provenance.ItemID) (provenance.ItemRecord, error) {
	return s.items.Get(ctx, itemKey(id), id, s.cacheTTL)
}

// Step returns the step record for id, served read-through the cache.
func (s *Service) Step(ctx context.Context, id provenance.StepID) (provenance.StepRecord, error) {
	return s.steps.Get(ctx, stepKey(id), id, s.cacheTTL)
}

// LastStepOf returns the item's frontier step id, with ok=false when the
// item is stepless.
func (s *Service) LastStepOf(ctx context.Context, item provenance.ItemID) (provenance.StepID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.LastStepOf(item)
}

// PrecedentsOf returns the step's ordered precedent list.
func (s *Service) PrecedentsOf(ctx context.Context, step provenance.StepID) ([]provenance.StepID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.PrecedentsOf(step)
}

// IsApprovedForStep reports whether the node may cite the step as a
// precedent.
func (s *Service) IsApprovedForStep(ctx context.Context, step provenance.StepID, node provenance.NodeID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.IsApprovedForStep(step, node)
}

// IsOperator reports whether p is a delegated operator of the node. Owner
// only.
func (s *Service) IsOperator(ctx context.Context, caller provenance.Principal, node provenance.NodeID, p provenance.Principal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.IsOperator(caller, node, p)
}

// Nodes returns all live node ids in ascending order.
func (s *Service) Nodes(ctx context.Context) []provenance.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Nodes()
}

// Items returns all live item ids in ascending order.
func (s *Service) Items(ctx context.Context) []provenance.ItemID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Items()
}

// Steps returns all live step ids in ascending order.
func (s *Service) Steps(ctx context.Context) []provenance.StepID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Steps()
}

// Counts returns the live record counts: nodes, items, steps.
func (s *Service) Counts(ctx context.Context) (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.NodeCount(), s.ledger.ItemCount(), s.ledger.StepCount()
}

// Snapshot exports the full in-memory ledger state.
func (s *Service) Snapshot(ctx context.Context) provenance.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}
