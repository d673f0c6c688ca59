package events

import (
	"sync"
	"time"

	"argus/pkg/logger"
)

// Type identifies an event stream
type Type string

const (
	TypeTransactionObserved Type = "transaction_observed"
	TypePatternDetected     Type = "pattern_detected"
	TypeProbeCompleted      Type = "probe_completed"
)

// Event is one notification on the bus
type Event struct {
	Type    Type
	Chain   string
	Payload interface{}
	At      time.Time
}

// defaultBuffer bounds each subscriber channel. Publish blocks when a
// subscriber falls this far behind, preserving at-least-once delivery.
const defaultBuffer = 1024

// Bus is the in-process publish/subscribe channel between the monitor,
// the probe orchestrator and any exporters. Subscription order does not
// affect delivery: every subscriber of a type receives every event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Type][]chan Event
	closed bool
	log    *logger.Logger
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Type][]chan Event),
		log:  logger.Get().With("component", "event_bus"),
	}
}

// Subscribe returns a channel receiving every future event of the type
func (b *Bus) Subscribe(t Type) <-chan Event {
	ch := make(chan Event, defaultBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[t] = append(b.subs[t], ch)
	return ch
}

// Publish delivers the event to every subscriber of its type
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[e.Type] {
		ch <- e
	}
}

// Close closes all subscriber channels. Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.subs = make(map[Type][]chan Event)
}
