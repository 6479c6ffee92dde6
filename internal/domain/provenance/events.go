package provenance

// EventKind names a ledger state change.
type EventKind string

// Event kinds, one per mutating operation plus the access-request
// notification.
const (
	EventNodeAdded      EventKind = "node_added"
	EventNodeRemoved    EventKind = "node_removed"
	EventNodeOpApproval EventKind = "node_op_approval"
	EventItemAdded      EventKind = "item_added"
	EventItemRemoved    EventKind = "item_removed"
	EventStepAdded      EventKind = "step_added"
	EventStepRemoved    EventKind = "step_removed"
	EventStepRequest    EventKind = "step_request"
	EventStepApproval   EventKind = "step_approval"
)

// Event is a single entry of the append-only audit trail. Every successful
// mutating operation records exactly one event, after all of its state
// changes have been applied.
type Event interface {
	Kind() EventKind
}

// NodeAdded is recorded when a node is registered.
type NodeAdded struct {
	Node  NodeID
	Owner Principal
}

// NodeRemoved is recorded when an empty node is deleted by its owner.
type NodeRemoved struct {
	Node  NodeID
	Owner Principal
}

// NodeOpApproval is recorded on every SetOperator call, including ones that
// leave the membership unchanged.
type NodeOpApproval struct {
	Node     NodeID
	Operator Principal
	Approved bool
}

// ItemAdded is recorded when an item is registered at its origin node.
type ItemAdded struct {
	Item ItemID
	Node NodeID
}

// ItemRemoved is recorded when a stepless item is deleted.
type ItemRemoved struct {
	Item ItemID
	Node NodeID
}

// StepAdded is recorded when a step passes validation and becomes its
// item's frontier.
type StepAdded struct {
	Step StepID
	Node NodeID
	Item ItemID
}

// StepRemoved is recorded when a frontier step is deleted and the item's
// frontier rewound.
type StepRemoved struct {
	Step StepID
	Node NodeID
	Item ItemID
}

// StepRequest is a pure notification: a node asking the owner of a step's
// node for extension rights. No ledger state changes.
type StepRequest struct {
	Step           StepID
	StepOwner      Principal
	RequestingNode NodeID
}

// StepApproval is recorded on every SetApproval call, including ones that
// leave the approval set unchanged.
type StepApproval struct {
	Step     StepID
	Approver Principal
	Node     NodeID
	Approved bool
}

// Kind implementations.
func (NodeAdded) Kind() EventKind      { return EventNodeAdded }
func (NodeRemoved) Kind() EventKind    { return EventNodeRemoved }
func (NodeOpApproval) Kind() EventKind { return EventNodeOpApproval }
func (ItemAdded) Kind() EventKind      { return EventItemAdded }
func (ItemRemoved) Kind() EventKind    { return EventItemRemoved }
func (StepAdded) Kind() EventKind      { return EventStepAdded }
func (StepRemoved) Kind() EventKind    { return EventStepRemoved }
func (StepRequest) Kind() EventKind    { return EventStepRequest }
func (StepApproval) Kind() EventKind   { return EventStepApproval }

// EventSink receives every recorded event. Implementations must not call
// back into the ledger.
type EventSink interface {
	Record(Event)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event)

// Record implements EventSink.
func (f SinkFunc) Record(e Event) {
	f(e)
}
