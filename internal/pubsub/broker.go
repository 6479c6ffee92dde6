package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 64

// subscriber is one registered channel plus its optional type filter. A
// nil filter receives everything.
type subscriber[T any] struct {
	ch     chan Event[T]
	filter map[EventType]struct{}
}

func (s *subscriber[T]) wants(t EventType) bool {
	if s.filter == nil {
		return true
	}
	_, ok := s.filter[t]
	return ok
}

// Broker is a generic pub/sub event broker. Publishing never blocks:
// events are dropped for subscribers whose buffers are full, so a slow
// observer cannot stall the publisher.
type Broker[T any] struct {
	mu         sync.RWMutex
	subs       map[uint64]*subscriber[T]
	nextID     uint64
	closed     bool
	bufferSize int
}

// NewBroker creates a new broker with the default buffer size (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a new broker with a custom buffer size.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:       make(map[uint64]*subscriber[T]),
		bufferSize: size,
	}
}

// Subscribe creates a subscription receiving every published event. The
// channel is closed when ctx is cancelled or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	return b.register(ctx, nil)
}

// SubscribeTypes creates a subscription receiving only events of the given
// types.
func (b *Broker[T]) SubscribeTypes(ctx context.Context, types ...EventType) <-chan Event[T] {
	filter := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		filter[t] = struct{}{}
	}
	return b.register(ctx, filter)
}

func (b *Broker[T]) register(ctx context.Context, filter map[EventType]struct{}) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	id := b.nextID
	b.nextID++
	sub := &subscriber[T]{ch: make(chan Event[T], b.bufferSize), filter: filter}
	b.subs[id] = sub

	go func() {
		<-ctx.Done()
		b.unregister(id)
	}()

	return sub.ch
}

func (b *Broker[T]) unregister(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Publish sends an event to every matching subscriber, stamping it with
// the current wall-clock time. Non-blocking: a subscriber whose buffer is
// full misses the event.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	for _, sub := range b.subs {
		if !sub.wants(eventType) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Buffer full, drop.
		}
	}
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
