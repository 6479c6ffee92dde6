// Package pubsub provides a generic publish/subscribe event system used to
// fan ledger audit events out to external observers.
package pubsub

import (
	"context"
	"time"
)

// EventType labels a published event.
type EventType string

// Event is a published event with a typed payload and the wall-clock time
// of publication.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
