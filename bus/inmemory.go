package bus

import (
	"fmt"
	"sync"
)

// InMemoryTransport is the required in-memory reference Transport: an
// unbounded per-recipient list plus a per-recipient handler list. Send
// appends the message to the recipient's list and then, before returning,
// invokes every installed handler for that recipient synchronously, in
// registration order. This gives deterministic delivery ordering, which is
// what the end-to-end scenarios in this repository's tests rely on.
//
// Handlers are never invoked while holding the transport's lock: the
// handler slice is copied under lock and invoked after release, so a
// handler calling back into Send cannot deadlock against its own delivery.
type InMemoryTransport struct {
	mu       sync.Mutex
	queues   map[string][]Message
	handlers map[string][]Handler
}

// NewInMemoryTransport creates an empty InMemoryTransport.
func NewInMemoryTransport() *InMemoryTransport {
	return &InMemoryTransport{
		queues:   make(map[string][]Message),
		handlers: make(map[string][]Handler),
	}
}

// Send appends msg to the recipient's queue and synchronously invokes every
// handler registered for the recipient, in registration order.
func (t *InMemoryTransport) Send(msg Message) error {
	t.mu.Lock()
	t.queues[msg.To] = append(t.queues[msg.To], msg)
	handlers := append([]Handler(nil), t.handlers[msg.To]...)
	t.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
	return nil
}

// Receive drains and returns all currently queued messages for agentID.
func (t *InMemoryTransport) Receive(agentID string) ([]Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := t.queues[agentID]
	delete(t.queues, agentID)
	return msgs, nil
}

// Subscribe appends handler to agentID's handler list.
func (t *InMemoryTransport) Subscribe(agentID string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("bus: nil handler for agent %q", agentID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[agentID] = append(t.handlers[agentID], handler)
	return nil
}

// Unsubscribe removes all handlers for agentID. After it returns, no
// subsequently-sent message triggers a formerly-registered handler.
func (t *InMemoryTransport) Unsubscribe(agentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, agentID)
	return nil
}

var _ Transport = (*InMemoryTransport)(nil)
