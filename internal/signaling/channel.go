package signaling

import (
	"context"
	"sync"
)

// Handler consumes one inbound event. Handlers must be fast; the channel
// dispatches them inline on the read path.
type Handler func(ctx context.Context, ev Event)

// Channel is the signaling capability injected into the call and messaging
// features. It is process-wide and shared: each feature subscribes
// independently and must not assume exclusive ownership.
//
// Matching is stateless against identifiers, not against the connection
// instance, so a reconnect requires no replay from subscribers.
type Channel interface {
	// Publish addresses an event to the given participant identifiers.
	// Best-effort: delivery failure is logged by the implementation and
	// never propagated as a call-flow error.
	Publish(ctx context.Context, to []string, ev Event) error

	// Subscribe registers a handler for all inbound events and returns its
	// unsubscribe function.
	Subscribe(h Handler) (unsubscribe func())
}

// MemoryChannel is an in-process Channel for tests.
type MemoryChannel struct {
	mu        sync.Mutex
	handlers  map[int]Handler
	nextID    int
	published []PublishedEvent
}

type PublishedEvent struct {
	To    []string
	Event Event
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{handlers: make(map[int]Handler)}
}

func (m *MemoryChannel) Publish(_ context.Context, to []string, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, PublishedEvent{To: to, Event: ev})
	return nil
}

func (m *MemoryChannel) Subscribe(h Handler) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.handlers[id] = h
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.handlers, id)
	}
}

// Inject dispatches an inbound event to all subscribers, as if it had
// arrived over the wire.
func (m *MemoryChannel) Inject(ctx context.Context, ev Event) {
	m.mu.Lock()
	hs := make([]Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		hs = append(hs, h)
	}
	m.mu.Unlock()

	for _, h := range hs {
		h(ctx, ev)
	}
}

// Published returns a copy of everything published so far.
func (m *MemoryChannel) Published() []PublishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedEvent, len(m.published))
	copy(out, m.published)
	return out
}

var _ Channel = (*MemoryChannel)(nil)
