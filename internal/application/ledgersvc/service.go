// Package ledgersvc is the application layer around the provenance ledger:
// it serializes all access through one mutex, persists touched rows after
// each committed mutation, records the audit trail, and traces operations.
package ledgersvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/provlab/traceline/internal/audit"
	"github.com/provlab/traceline/internal/cachemanager"
	"github.com/provlab/traceline/internal/domain/provenance"
	"github.com/provlab/traceline/internal/infrastructure/sqlite"
	"github.com/provlab/traceline/internal/log"
	"github.com/provlab/traceline/internal/signature"
	"github.com/provlab/traceline/internal/tracing"
)

type cacheKey string

// Options configures a Service.
type Options struct {
	// Repo is the durable store. Required.
	Repo *sqlite.LedgerRepository

	// Trail receives every domain event. Required.
	Trail *audit.Trail

	// Tracer traces ledger operations. Defaults to a no-op tracer.
	Tracer trace.Tracer

	// CacheEnabled turns on the read-through cache over record queries.
	CacheEnabled bool

	// CacheTTL is the lifetime of cached records. Defaults to one minute.
	CacheTTL time.Duration
}

// Service owns the single writable ledger instance. All operations run
// under one mutex: the ledger core assumes a total order of operations and
// the service is where that order is imposed.
type Service struct {
	mu     sync.Mutex
	ledger *provenance.Ledger
	repo   *sqlite.LedgerRepository
	trail  *audit.Trail
	tracer trace.Tracer

	cacheTTL time.Duration
	nodes    *cachemanager.ReadThroughCache[cacheKey, provenance.NodeRecord, provenance.NodeID]
	items    *cachemanager.ReadThroughCache[cacheKey, provenance.ItemRecord, provenance.ItemID]
	steps    *cachemanager.ReadThroughCache[cacheKey, provenance.StepRecord, provenance.StepID]
}

// New loads persisted state and builds the service around it. An empty
// database yields a fresh ledger.
func New(opts Options) (*Service, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("ledgersvc: repo is required")
	}
	if opts.Trail == nil {
		return nil, fmt.Errorf("ledgersvc: audit trail is required")
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	snap, err := opts.Repo.Load()
	if err != nil {
		return nil, fmt.Errorf("load ledger state: %w", err)
	}
	ledger, err := provenance.FromSnapshot(snap, provenance.WithEventSink(opts.Trail))
	if err != nil {
		return nil, fmt.Errorf("restore ledger state: %w", err)
	}

	s := &Service{
		ledger:   ledger,
		repo:     opts.Repo,
		trail:    opts.Trail,
		tracer:   tracer,
		cacheTTL: ttl,
	}

	skip := !opts.CacheEnabled
	s.nodes = cachemanager.NewReadThroughCache(
		cachemanager.NewInMemoryCacheManager[cacheKey, provenance.NodeRecord]("nodes", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
		s.loadNodeRecord, skip)
	s.items = cachemanager.NewReadThroughCache(
		cachemanager.NewInMemoryCacheManager[cacheKey, provenance.ItemRecord]("items", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
		s.loadItemRecord, skip)
	s.steps = cachemanager.NewReadThroughCache(
		cachemanager.NewInMemoryCacheManager[cacheKey, provenance.StepRecord]("steps", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval),
		s.loadStepRecord, skip)

	log.Info(log.CatLedger, "ledger loaded",
		"nodes", ledger.NodeCount(), "items", ledger.ItemCount(), "steps", ledger.StepCount())

	return s, nil
}

// Trail exposes the audit trail for subscription and inspection.
func (s *Service) Trail() *audit.Trail {
	return s.trail
}

func nodeKey(id provenance.NodeID) cacheKey { return cacheKey(fmt.Sprintf("node/%d", id)) }
func itemKey(id provenance.ItemID) cacheKey { return cacheKey(fmt.Sprintf("item/%d", id)) }
func stepKey(id provenance.StepID) cacheKey { return cacheKey(fmt.Sprintf("step/%d", id)) }

func (s *Service) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) trace.Span {
	_, span := s.tracer.Start(ctx, tracing.SpanPrefixLedger+op)
	span.SetAttributes(attrs...)
	return span
}

// finishSpan records the operation outcome on the span.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(tracing.AttrErrorMessage, err.Error()))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// persist mirrors the memory rows touched by a committed mutation into the
// store, counters last. A failure leaves memory ahead of disk; the error is
// surfaced and the next successful write of the same rows re-syncs them,
// since upserts always carry the full row and counters are rewritten every
// time.
func (s *Service) persist(ops ...func() error) error {
	for _, op := range ops {
		if err := op(); err != nil {
			log.ErrorErr(log.CatDB, "persist failed", err)
			return fmt.Errorf("persist: %w", err)
		}
	}
	nextNode, nextItem, nextStep := s.ledger.Counters()
	if err := s.repo.SetCounters(nextNode, nextItem, nextStep); err != nil {
		log.ErrorErr(log.CatDB, "persist counters failed", err)
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

func (s *Service) upsertNode(id provenance.NodeID) func() error {
	return func() error {
		node, err := s.ledger.Node(id)
		if err != nil {
			return err
		}
		return s.repo.UpsertNode(node.Record())
	}
}

func (s *Service) upsertItem(id provenance.ItemID) func() error {
	return func() error {
		item, err := s.ledger.Item(id)
		if err != nil {
			return err
		}
		return s.repo.UpsertItem(item.Record())
	}
}

func (s *Service) upsertStep(id provenance.StepID) func() error {
	return func() error {
		step, err := s.ledger.Step(id)
		if err != nil {
			return err
		}
		return s.repo.UpsertStep(step.Record())
	}
}

// AddNode registers a new node owned by caller.
func (s *Service) AddNode(ctx context.Context, caller provenance.Principal, file signature.Signature) (provenance.NodeID, error) {
	span := s.startSpan(ctx, "add_node", attribute.String(tracing.AttrCaller, string(caller)))

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.ledger.AddNode(caller, file)
	if err != nil {
		finishSpan(span, err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64(tracing.AttrNodeID, int64(id)))
	log.Info(log.CatLedger, "node added", "node", id, "owner", caller)

	err = s.persist(s.upsertNode(id))
	finishSpan(span, err)
	return id, err
}

// RemoveNode deletes a node. Owner only, and only while it owns no active
// steps.
func (s *Service) RemoveNode(ctx context.Context, caller provenance.Principal, id provenance.NodeID) error {
	span := s.startSpan(ctx, "remove_node",
		attribute.String(tracing.AttrCaller, string(caller)),
		attribute.Int64(tracing.AttrNodeID, int64(id)))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.RemoveNode(caller, id); err != nil {
		finishSpan(span, err)
		return err
	}
	log.Info(log.CatLedger, "node removed", "node", id)
	_ = s.nodes.Invalidate(ctx, nodeKey(id))

	err := s.persist(func() error { return s.repo.DeleteNode(id) })
	finishSpan(span, err)
	return err
}

// SetOperator grants or revokes a delegated operator on a node. Owner only.
func (s *Service) SetOperator(ctx context.Context, caller provenance.Principal, id provenance.NodeID, operator provenance.Principal, approved bool) error {
	span := s.startSpan(ctx, "set_operator",
		attribute.String(tracing.AttrCaller, string(caller)),
		attribute.Int64(tracing.AttrNodeID, int64(id)),
		attribute.Bool(tracing.AttrApproved, approved))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.SetOperator(caller, id, operator, approved); err != nil {
		finishSpan(span, err)
		return err
	}
	log.Info(log.CatLedger, "operator set", "node", id, "operator", operator, "approved", approved)
	_ = s.nodes.Invalidate(ctx, nodeKey(id))

	err := s.persist(s.upsertNode(id))
	finishSpan(span, err)
	return err
}

// AddItem registers a new tracked item rooted at the given node.
func (s *Service) AddItem(ctx context.Context, caller provenance.Principal, node provenance.NodeID, file signature.Signature) (provenance.ItemID, error) {
	span := s.startSpan(ctx, "add_item",
		attribute.String(tracing.AttrCaller, string(caller)),
		attribute.Int64(tracing.AttrNodeID, int64(node)))

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.ledger.AddItem(caller, node, file)
	if err != nil {
		finishSpan(span, err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64(tracing.AttrItemID, int64(id)))
	log.Info(log.CatLedger, "item added", "item", id, "node", node)

	err = s.persist(s.upsertItem(id))
	finishSpan(span, err)
	return id, err
}

// RemoveItem deletes a stepless item. Authorized principals of its origin
// node only.
func (s *Service) RemoveItem(ctx context.Context, caller provenance.Principal, id provenance.ItemID) error {
	span := s.startSpan(ctx, "remove_item",
		attribute.String(tracing.AttrCaller, string(caller)),
		attribute.Int64(tracing.AttrItemID, int64(id)))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.RemoveItem(caller, id); err != nil {
		finishSpan(span, err)
		return err
	}
	log.Info(log.CatLedger, "item removed", "item", id)
	_ = s.items.Invalidate(ctx, itemKey(id))

	err := s.persist(func() error { return s.repo.DeleteItem(id) })
	finishSpan(span, err)
	return err
}

// ValidateStep dry-runs the full step admission check without mutating
// anything. A nil error means an identical AddStep would be accepted.
func (s *Service) ValidateStep(ctx context.Context, caller provenance.Principal, node provenance.NodeID, item provenance.ItemID, precedents []provenance.StepID) error {
	span := s.startSpan(ctx, "validate_step",
		attribute.String(tracing.AttrCaller, string(caller)),
		attribute.Int64(tracing.AttrNodeID, int64(node)),
		attribute.Int64(tracing.AttrItemID, int64(item)))

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.ledger.ValidateStep(caller, node, item, precedents)
	finishSpan(span, err)
	return err
}

// AddStep records a production event advancing an item, becoming its new
// frontier.
func (s *Service) AddStep(ctx context.Context, caller provenance.Principal, node provenance.NodeID, item provenance.ItemID, precedents []provenance.StepID, file signature.Signature) (provenance.StepID, error) {
	span := s.startSpan(ctx, "add_step",
		attribute.String(tracing.AttrCaller, string(caller)),
		attribute.Int64(tracing.AttrNodeID, int64(node)),
		attribute.Int64(tracing.AttrItemID, int64(item)))

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.ledger.AddStep(caller, node, item, precedents, file)
	if err != nil {
		finishSpan(span, err)
		return 0, err
	}
	span.SetAttributes(attribute.Int64(tracing.AttrStepID, int64(id)))
	span.AddEvent(tracing.EventValidated)
	log.Info(log.CatLedger, "step added", "step", id, "node", node, "item", item)
	_ = s.items.Invalidate(ctx, itemKey(item))
	_ = s.nodes.Invalidate(ctx, nodeKey(node))

	// The new step, the item's moved frontier, and the node's step count.
	err = s.persist(s.upsertStep(id), s.upsertItem(item), s.upsertNode(node))
	finishSpan(span, err)
	return id, err
}

// RemoveStep deletes an item's frontier step and rewinds the frontier to
// its same-item precedent.
func (s *Service) RemoveStep(ctx context.Context, caller provenance.Principal, id provenance.StepID) error {
	span := s.startSpan(ctx, "remove_step",
		attribute.String(tracing.AttrCaller, string(caller)),
		attribute.Int64(tracing.AttrStepID, int64(id)))

	s.mu.Lock()
	defer s.mu.Unlock()

	step, err := s.ledger.Step(id)
	if err != nil {
		finishSpan(span, err)
		return err
	}
	item, node := step.Item(), step.Node()

	if err := s.ledger.RemoveStep(caller, id); err != nil {
		finishSpan(span, err)
		return err
	}
	log.Info(log.CatLedger, "step removed", "step", id, "item", item)
	_ = s.steps.Invalidate(ctx, stepKey(id))
	_ = s.items.Invalidate(ctx, itemKey(item))
	_ = s.nodes.Invalidate(ctx, nodeKey(node))

	err = s.persist(
		func() error { return s.repo.DeleteStep(id) },
		s.upsertItem(item),
		s.upsertNode(node),
	)
	finishSpan(span, err)
	return err
}

// RequestAccess records that a node asks the owner of a step for precedent
// approval. Pure notification; grants happen through SetApproval.
func (s *Service) RequestAccess(ctx context.Context, caller provenance.Principal, step provenance.StepID, requesting provenance.NodeID) error {
	span := s.startSpan(ctx, "request_access",
		attribute.String(tracing.AttrCaller, string(caller)),
		attribute.Int64(tracing.AttrStepID, int64(step)),
		attribute.Int64(tracing.AttrRequester, int64(requesting)))

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.ledger.RequestAccess(caller, step, requesting)
	if err == nil {
		log.Info(log.CatLedger, "access requested", "step", step, "requesting", requesting)
	}
	finishSpan(span, err)
	return err
}

// SetApproval grants or revokes a node's right to cite a step as a
// precedent. Owner of the step's node only.
func (s *Service) SetApproval(ctx context.Context, caller provenance.Principal, step provenance.StepID, node provenance.NodeID, approved bool) error {
	span := s.startSpan(ctx, "set_approval",
		attribute.String(tracing.AttrCaller, string(caller)),
		attribute.Int64(tracing.AttrStepID, int64(step)),
		attribute.Int64(tracing.AttrNodeID, int64(node)),
		attribute.Bool(tracing.AttrApproved, approved))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.SetApproval(caller, step, node, approved); err != nil {
		finishSpan(span, err)
		return err
	}
	log.Info(log.CatLedger, "approval set", "step", step, "node", node, "approved", approved)
	_ = s.steps.Invalidate(ctx, stepKey(step))

	err := s.persist(s.upsertStep(step))
	finishSpan(span, err)
	return err
}
