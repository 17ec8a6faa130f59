package bus

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Bus wraps a Transport. It assigns message identity and timestamp, applies
// defaults (priority), fans out broadcasts, and mediates subscribe/
// unsubscribe so exactly one handler chain per agent is tracked at the bus
// level (in addition to whatever bookkeeping the underlying Transport does).
type Bus struct {
	transport Transport

	mu       sync.Mutex
	handlers map[string][]Handler
	deferred map[string][]Message
}

// New wraps transport in a Bus. The Bus borrows transport; transport's
// lifetime must exceed the Bus's.
func New(transport Transport) *Bus {
	return &Bus{
		transport: transport,
		handlers:  make(map[string][]Handler),
		deferred:  make(map[string][]Message),
	}
}

// Send constructs a Message from the given fields, assigns a unique id and
// timestamp, defaults Priority to PriorityNormal when unset, and forwards it
// to the Transport. It returns the assigned id.
func (b *Bus) Send(from, to, msgType string, payload any, opts SendOptions) (string, error) {
	priority := opts.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	msg := Message{
		ID:            uuid.NewString(),
		From:          from,
		To:            to,
		Type:          msgType,
		Payload:       payload,
		Priority:      priority,
		Timestamp:     time.Now(),
		CorrelationID: opts.CorrelationID,
		ReplyTo:       opts.ReplyTo,
		Metadata:      opts.Metadata,
	}

	if err := b.transport.Send(msg); err != nil {
		return "", fmt.Errorf("bus: send to %q: %w", to, err)
	}
	return msg.ID, nil
}

// BroadcastResult is the outcome of a Broadcast call: the ids successfully
// assigned, in recipient order, and the first error encountered (if any).
type BroadcastResult struct {
	IDs []string
	Err error
}

// Broadcast issues one Send per recipient, preserving the order of
// recipients in the returned id list. If any individual Send fails, the
// error is surfaced and no further recipients are attempted; already-sent
// ids are returned alongside the error.
func (b *Bus) Broadcast(from string, recipients []string, msgType string, payload any, opts SendOptions) BroadcastResult {
	ids := make([]string, 0, len(recipients))
	for _, to := range recipients {
		id, err := b.Send(from, to, msgType, payload, opts)
		if err != nil {
			return BroadcastResult{IDs: ids, Err: err}
		}
		ids = append(ids, id)
	}
	return BroadcastResult{IDs: ids}
}

// Subscribe installs handler for agentID, maintaining the bus-side handler
// list and mirroring the action to the Transport.
func (b *Bus) Subscribe(agentID string, handler Handler) error {
	b.mu.Lock()
	b.handlers[agentID] = append(b.handlers[agentID], handler)
	b.mu.Unlock()
	return b.transport.Subscribe(agentID, handler)
}

// Unsubscribe removes all handlers for agentID at both the bus and
// transport level.
func (b *Bus) Unsubscribe(agentID string) error {
	b.mu.Lock()
	delete(b.handlers, agentID)
	b.mu.Unlock()
	return b.transport.Unsubscribe(agentID)
}

// Enqueue holds msg at the bus for later pull delivery to msg.To. It
// bypasses the Transport entirely: the message is not pushed to handlers
// and is only observed through Receive. The id and timestamp are assigned
// here if missing, so an enqueued message satisfies the same completeness
// guarantee as a sent one.
func (b *Bus) Enqueue(msg Message) string {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if msg.Priority == "" {
		msg.Priority = PriorityNormal
	}
	b.mu.Lock()
	b.deferred[msg.To] = append(b.deferred[msg.To], msg)
	b.mu.Unlock()
	return msg.ID
}

// Receive drains the messages held at the bus for agentID plus the
// Transport's per-agent queue, queued-first, then transport order.
func (b *Bus) Receive(agentID string) ([]Message, error) {
	b.mu.Lock()
	queued := b.deferred[agentID]
	delete(b.deferred, agentID)
	b.mu.Unlock()

	fromTransport, err := b.transport.Receive(agentID)
	if err != nil {
		// Keep the transport's messages for a later drain; the queued
		// ones were already claimed by this call.
		return queued, err
	}
	return append(queued, fromTransport...), nil
}
