package provenance

// Ledger is the aggregate holding the three registries and the id
// allocators. The zero value is not usable; construct with New or
// FromSnapshot.
//
// Ids are allocated from monotonically increasing counters starting at 1
// and are never reused after deletion: a deleted id stays resolvable as a
// clear "not found", never as a recycled unrelated record.
type Ledger struct {
	nodes map[NodeID]*Node
	items map[ItemID]*Item
	steps map[StepID]*Step

	nextNode NodeID
	nextItem ItemID
	nextStep StepID

	sink EventSink
}

// Option configures a Ledger during construction.
type Option func(*Ledger)

// WithEventSink injects the audit sink every state change is recorded to.
// Without it, events are dropped.
func WithEventSink(sink EventSink) Option {
	return func(l *Ledger) {
		l.sink = sink
	}
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		nodes:    make(map[NodeID]*Node),
		items:    make(map[ItemID]*Item),
		steps:    make(map[StepID]*Step),
		nextNode: 1,
		nextItem: 1,
		nextStep: 1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// record forwards an event to the sink, if one is attached. Called only
// after every state change of the operation has been applied.
func (l *Ledger) record(e Event) {
	if l.sink != nil {
		l.sink.Record(e)
	}
}

// NodeCount returns the number of live nodes.
func (l *Ledger) NodeCount() int {
	return len(l.nodes)
}

// ItemCount returns the number of live items.
func (l *Ledger) ItemCount() int {
	return len(l.items)
}

// StepCount returns the number of live steps.
func (l *Ledger) StepCount() int {
	return len(l.steps)
}
