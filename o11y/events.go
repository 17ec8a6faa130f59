package o11y

import (
	"context"
	"sync"
	"time"

	"github.com/lookatitude/beluga-kernel/core"
)

// EventType tags a kernel lifecycle event.
type EventType string

const (
	// EventAgentStarted is published when an execution is admitted and the
	// agent's body is about to run.
	EventAgentStarted EventType = "agent.started"

	// EventAgentCompleted is published when an execution returns success.
	EventAgentCompleted EventType = "agent.completed"

	// EventAgentFailed is published when an execution returns failure.
	EventAgentFailed EventType = "agent.failed"

	// EventMessageSent is published after the bus accepts a message.
	EventMessageSent EventType = "message.sent"

	// EventMessageReceived is published when a subscribed handler is handed
	// a message.
	EventMessageReceived EventType = "message.received"

	// EventFallbackTriggered is published when a primary agent's retry
	// sequence is exhausted and a fallback agent takes over.
	EventFallbackTriggered EventType = "fallback.triggered"

	// EventCircuitOpened is published when a circuit breaker trips OPEN.
	EventCircuitOpened EventType = "circuit.breaker.opened"

	// EventCircuitClosed is published when a circuit breaker recovers to
	// CLOSED.
	EventCircuitClosed EventType = "circuit.breaker.closed"
)

// Event is one kernel lifecycle occurrence. AgentID and RequestID are set
// when the event concerns a specific execution; Data carries event-specific
// fields (message id, error code, circuit state).
type Event struct {
	Type          EventType
	AgentID       string
	RequestID     string
	CorrelationID string
	Timestamp     time.Time
	Data          map[string]any
}

// EventPublisher buffers kernel lifecycle events for consumption by a host
// process. Publish never blocks and never fails the originating operation:
// when the buffer is full the event is dropped and counted. Consumers range
// over Events, a pull-based core.Stream.
type EventPublisher struct {
	logger *Logger

	mu      sync.Mutex
	ch      chan Event
	closed  bool
	dropped int64
}

// NewEventPublisher creates an EventPublisher with the given buffer size.
// A size <= 0 defaults to 256.
func NewEventPublisher(size int, logger *Logger) *EventPublisher {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = NewLogger()
	}
	return &EventPublisher{
		logger: logger,
		ch:     make(chan Event, size),
	}
}

// Publish enqueues e without blocking. If the buffer is full, the event is
// dropped, counted, and logged at debug level; after Close, the event is
// discarded silently.
func (p *EventPublisher) Publish(ctx context.Context, e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	select {
	case p.ch <- e:
		p.mu.Unlock()
	default:
		p.dropped++
		n := p.dropped
		p.mu.Unlock()
		p.logger.Debug(ctx, "event buffer full, dropping event",
			"event_type", string(e.Type), "agent_id", e.AgentID, "dropped_total", n)
	}
}

// Dropped returns the number of events discarded because the buffer was
// full.
func (p *EventPublisher) Dropped() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Events returns a pull-based stream over the published events. The stream
// ends when the publisher is closed and the buffer has drained. Multiple
// concurrent consumers compete for events; run one consumer per publisher
// for a complete view.
func (p *EventPublisher) Events() core.Stream[Event] {
	return func(yield func(core.Event[Event], error) bool) {
		for e := range p.ch {
			if !yield(core.Event[Event]{Type: core.EventData, Payload: e}, nil) {
				return
			}
		}
		yield(core.Event[Event]{Type: core.EventDone}, nil)
	}
}

// Close stops the publisher. Published events already buffered remain
// readable; subsequent Publish calls are dropped. Safe to call more than
// once.
func (p *EventPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
}
