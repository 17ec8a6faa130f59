package bus

// Handler is a push-delivery callback installed via Transport.Subscribe.
// It is invoked once per delivered message addressed to the subscribed
// agent.
type Handler func(msg Message)

// Transport moves Message values between named endpoints. A transport
// implementation must be safe for concurrent use from many goroutines.
//
// Ordering contract: messages from a single sender to a single recipient
// must be delivered in send order. No ordering is guaranteed between
// distinct senders or across priority classes — priority is a hint, not a
// kernel guarantee.
type Transport interface {
	// Send delivers msg to the endpoint named by msg.To.
	Send(msg Message) error

	// Receive drains the currently available messages queued for agentID.
	Receive(agentID string) ([]Message, error)

	// Subscribe installs a push handler for agentID. The transport commits
	// to invoking handler for each message addressed to agentID until
	// Unsubscribe is called. Multiple subscribes for the same agent append
	// handlers; a delivered message is offered to every handler in
	// registration order.
	Subscribe(agentID string, handler Handler) error

	// Unsubscribe removes all handlers for agentID and stops push
	// delivery. Idempotent.
	Unsubscribe(agentID string) error
}

// Cleaner is satisfied by transports that own background pollers or other
// resources needing an explicit shutdown. It is optional: the in-memory
// reference transport does not need it.
type Cleaner interface {
	Cleanup() error
}
