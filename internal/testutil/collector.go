package testutil

import (
	"sync"

	"github.com/provlab/traceline/internal/domain/provenance"
)

// Collector is an EventSink that retains every event for assertions.
type Collector struct {
	mu     sync.Mutex
	events []provenance.Event
}

var _ provenance.EventSink = (*Collector)(nil)

// Record implements provenance.EventSink.
func (c *Collector) Record(e provenance.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of the collected events in recording order.
func (c *Collector) Events() []provenance.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]provenance.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Last returns the most recent event, or nil when none were recorded.
func (c *Collector) Last() provenance.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return nil
	}
	return c.events[len(c.events)-1]
}

// Len returns the number of collected events.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Reset drops all collected events.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
