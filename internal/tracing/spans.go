package tracing

// Span attribute keys for ledger tracing.
const (
	// Operation attributes
	AttrOperation = "ledger.operation"
	AttrCaller    = "ledger.caller"

	// Record attributes
	AttrNodeID = "node.id"
	AttrItemID = "item.id"
	AttrStepID = "step.id"

	// Approval attributes
	AttrApproved  = "approval.granted"
	AttrApprover  = "approval.approver"
	AttrRequester = "approval.requester"

	// Persistence attributes
	AttrRowsTouched = "db.rows_touched"

	// Error attributes
	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// Span name prefixes for consistent naming.
const (
	SpanPrefixLedger = "ledger."
	SpanPrefixRepo   = "repo."
	SpanPrefixQuery  = "query."
)

// Event names for span events.
const (
	EventValidated  = "step.validated"
	EventPersisted  = "state.persisted"
	EventAuditEntry = "audit.recorded"
	EventCacheHit   = "cache.hit"
	EventCacheMiss  = "cache.miss"
)
