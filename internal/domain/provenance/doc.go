// Package provenance implements the domain layer for the traceline
// provenance ledger.
//
// This package follows Domain-Driven Design (DDD) principles:
//   - Contains only pure Go code plus the signature value object (no
//     infrastructure dependencies)
//   - Defines entity types (Node, Item, Step) keyed by monotonically
//     assigned, never-reused integer ids
//   - Implements the step-graph integrity rules: DAG shape by construction,
//     the single-frontier-per-item continuation rule, and cross-node
//     approval checks
//   - Has no knowledge of infrastructure concerns (databases, transports,
//     durable logs)
//
// # Core Types
//
// Ledger is the aggregate holding the three registries (nodes, items,
// steps) and the id allocators. Every public operation takes the calling
// Principal explicitly; there is no ambient identity.
//
// Node is a participating location. Its owner is fixed at creation; the
// owner may delegate day-to-day actions to operators, but cross-node trust
// decisions (step approvals) stay with the owner.
//
// Item is a tracked entity rooted at one node. At most one step is its
// frontier (last step) at any time.
//
// Step is one recorded production event. Its node, item, and precedents are
// immutable after creation; only the approval set mutates.
//
// # Atomicity
//
// Every operation validates fully before mutating anything: a failed call
// leaves the ledger byte-for-byte unchanged. Each successful mutation
// records exactly one Event on the injected EventSink, after all state
// changes have been applied.
//
// The Ledger itself holds no locks. Callers must serialize operations that
// touch overlapping entities; internal/application/ledgersvc provides that
// executor.
package provenance
