package agent

import "time"

// Context is the per-invocation value threaded through an agent execution.
// It is opaque to the kernel: agent bodies receive it and may read it, but
// the kernel never inspects its contents beyond AgentID and RequestID.
type Context struct {
	// AgentID is the target agent's identifier.
	AgentID string

	// RequestID uniquely identifies this execution, generated by the
	// orchestrator.
	RequestID string

	// Timestamp records when the execution was admitted.
	Timestamp time.Time

	// CorrelationID optionally links this execution to related messages
	// or other executions for observability.
	CorrelationID string

	// Metadata is an arbitrary, opaque key-value bag.
	Metadata map[string]any
}

// Merge returns a copy of base with AgentID, RequestID, and Timestamp taken
// from base (the kernel-authoritative fields), and CorrelationID/Metadata
// taken from partial when partial is non-nil and those fields are set.
// This implements the override rule from the orchestrator's ExecuteAgent:
// caller-supplied fields override generated ones only for CorrelationID
// and Metadata.
func (base Context) Merge(partial *Context) Context {
	if partial == nil {
		return base
	}
	out := base
	if partial.CorrelationID != "" {
		out.CorrelationID = partial.CorrelationID
	}
	if partial.Metadata != nil {
		out.Metadata = partial.Metadata
	}
	return out
}
