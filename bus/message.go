// Package bus provides the message transport abstraction and the Bus
// facade that assigns message identity, applies defaults, and fans out
// broadcasts over a pluggable Transport.
package bus

import "time"

// Priority classifies a Message for transport hinting. It is never a
// kernel-enforced ordering guarantee — see Transport for the ordering
// contract that is guaranteed.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityNormal   Priority = "NORMAL"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Message is the unit transferred over the Bus. ID, From, To, Type,
// Priority, and Timestamp are always present once the Bus has accepted
// the message.
type Message struct {
	ID            string
	From          string
	To            string
	Type          string
	Payload       any
	Priority      Priority
	Timestamp     time.Time
	CorrelationID string
	ReplyTo       string
	Metadata      map[string]any
}

// SendOptions configures an individual Bus.Send call.
type SendOptions struct {
	Priority      Priority
	CorrelationID string
	ReplyTo       string
	Metadata      map[string]any
}
