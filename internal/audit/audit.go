// Package audit provides the append-only audit trail for ledger state
// changes: every domain event is wrapped in an envelope with a GUID and a
// wall-clock timestamp, retained in order, and fanned out to subscribers.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/provlab/traceline/internal/domain/provenance"
	"github.com/provlab/traceline/internal/log"
	"github.com/provlab/traceline/internal/pubsub"
)

// Envelope wraps a domain event with its trail identity.
type Envelope struct {
	ID    uuid.UUID
	Time  time.Time
	Event provenance.Event
}

// Trail is an in-process audit log. It implements provenance.EventSink and
// is safe for concurrent use. Fan-out is non-blocking: slow subscribers
// drop events rather than stall the ledger.
type Trail struct {
	mu      sync.RWMutex
	entries []Envelope
	broker  *pubsub.Broker[Envelope]
}

// NewTrail creates an empty audit trail.
func NewTrail() *Trail {
	return &Trail{
		broker: pubsub.NewBroker[Envelope](),
	}
}

// NewTrailWithBuffer creates an empty trail whose subscriber channels hold
// up to size events before fan-out starts dropping.
func NewTrailWithBuffer(size int) *Trail {
	return &Trail{
		broker: pubsub.NewBrokerWithBuffer[Envelope](size),
	}
}

// Ensure Trail satisfies the domain sink contract.
var _ provenance.EventSink = (*Trail)(nil)

// Record appends the event to the trail and publishes it to subscribers.
func (t *Trail) Record(e provenance.Event) {
	env := Envelope{
		ID:    uuid.New(),
		Time:  time.Now(),
		Event: e,
	}

	t.mu.Lock()
	t.entries = append(t.entries, env)
	t.mu.Unlock()

	t.broker.Publish(pubsub.EventType(e.Kind()), env)
	log.Debug(log.CatAudit, "event recorded", "kind", e.Kind(), "id", env.ID)
}

// Subscribe returns a channel of envelopes published after the call.
// The channel closes when ctx is cancelled or the trail is closed.
func (t *Trail) Subscribe(ctx context.Context) <-chan pubsub.Event[Envelope] {
	return t.broker.Subscribe(ctx)
}

// SubscribeKinds returns a channel receiving only envelopes for the given
// event kinds.
func (t *Trail) SubscribeKinds(ctx context.Context, kinds ...provenance.EventKind) <-chan pubsub.Event[Envelope] {
	types := make([]pubsub.EventType, len(kinds))
	for i, k := range kinds {
		types[i] = pubsub.EventType(k)
	}
	return t.broker.SubscribeTypes(ctx, types...)
}

// Entries returns a copy of the full trail, in recording order.
func (t *Trail) Entries() []Envelope {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Envelope, len(t.entries))
	copy(out, t.entries)
	return out
}

// Count returns the number of recorded events.
func (t *Trail) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Close shuts down the fan-out broker. Record remains safe to call; events
// are still retained, just no longer published.
func (t *Trail) Close() {
	t.broker.Close()
}
