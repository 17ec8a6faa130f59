// Package agent defines the capability set every agent implements, the
// lifecycle framing the kernel wraps around it, and the per-agent
// configuration and status types.
package agent

// Message is the minimal shape HandleMessage needs; it mirrors bus.Message
// without importing the bus package, so agent has no dependency on the
// transport layer. Kernel code that forwards a bus.Message into
// HandleMessage constructs one of these from it.
type Message struct {
	ID            string
	From          string
	To            string
	Type          string
	Payload       any
	CorrelationID string
	ReplyTo       string
	Metadata      map[string]any
}

// Agent is the capability set every agent value satisfies. There is no
// abstract base class to inherit from: any type exposing these methods
// can be registered with the orchestrator. Lifecycle framing (status
// tracking, metrics, error mapping) lives in Base, which wraps a Run
// function rather than requiring a superclass.
type Agent interface {
	// Run is the user-supplied body. It may return an error; the kernel
	// maps a returned error to a failed Result and a panic recovered by
	// the kernel to AgentError/UnknownError as appropriate.
	Run(ctx Context, input any) (any, error)

	// HandleMessage reacts to an inbound message. A typical implementation
	// synthesizes a Context from the message and calls Execute.
	HandleMessage(msg Message) Result

	// ID returns the agent's identifier.
	ID() string

	// Status returns the agent's current lifecycle status.
	Status() Status

	// Config returns a copy of the agent's configuration; callers cannot
	// mutate the agent through the returned value.
	Config() Config

	// Execute runs Run under lifecycle framing: status transitions,
	// timing, and error mapping. It does not retry, time out, or consult
	// a circuit breaker — that composition lives in the FallbackManager.
	Execute(ctx Context, input any) Result

	// Suspend forces the agent into StatusSuspended from any state.
	Suspend()

	// Resume returns the agent to StatusIdle, but only if it is currently
	// StatusSuspended.
	Resume()
}
