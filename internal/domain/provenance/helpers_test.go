package provenance

import (
	"github.com/provlab/traceline/internal/signature"
)

// collector is a test EventSink that records every event in order.
type collector struct {
	events []Event
}

func (c *collector) Record(e Event) {
	c.events = append(c.events, e)
}

// last returns the most recent event, or nil.
func (c *collector) last() Event {
	if len(c.events) == 0 {
		return nil
	}
	return c.events[len(c.events)-1]
}

func (c *collector) reset() {
	c.events = nil
}

// newTestLedger returns an empty ledger wired to a fresh collector.
func newTestLedger() (*Ledger, *collector) {
	sink := &collector{}
	return New(WithEventSink(sink)), sink
}

// sig derives a distinct valid signature from a label.
func sig(label string) signature.Signature {
	return signature.Sum([]byte(label))
}

const (
	alice = Principal("alice")
	bob   = Principal("bob")
	carol = Principal("carol")
	mal   = Principal("mallory")
)
