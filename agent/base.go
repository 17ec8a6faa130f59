package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/lookatitude/beluga-kernel/core"
)

// RunFunc is the user-supplied agent body. Base wraps a RunFunc with
// lifecycle framing rather than requiring callers to subclass a base type.
type RunFunc func(ctx Context, input any) (any, error)

// HandleMessageFunc reacts to an inbound message. The default produced by
// NewBase synthesizes a Context from the message and delegates to Execute;
// callers needing different message semantics may supply their own.
type HandleMessageFunc func(a *Base, msg Message) Result

// Base is the default Agent implementation. Any RunFunc can be wrapped into
// a working agent; there is no superclass to embed. Status is a single
// instance field guarded by a mutex for individual reads/writes, but is not
// held across a Run call — concurrent in-flight executions on the same
// instance may race on the observed status sequence. This is a documented
// limitation (see the orchestrator's per-agent serialization notes), not a
// bug: move status into a table keyed by (agentId, requestId) if strict
// per-call isolation of status is required.
type Base struct {
	config  Config
	run     RunFunc
	handler HandleMessageFunc
	cleanup func()

	mu     sync.Mutex
	status Status
}

// NewBase creates a Base agent with the given config and body. cleanup, if
// non-nil, runs on every exit path of Execute (success, failure, or
// cancellation).
func NewBase(cfg Config, run RunFunc, cleanup func()) *Base {
	b := &Base{
		config:  cfg,
		run:     run,
		cleanup: cleanup,
		status:  StatusIdle,
	}
	b.handler = defaultHandleMessage
	return b
}

// WithHandler overrides the default HandleMessage implementation.
func (a *Base) WithHandler(h HandleMessageFunc) *Base {
	a.handler = h
	return a
}

// ID returns the agent's identifier.
func (a *Base) ID() string { return a.config.ID }

// Status returns the agent's current lifecycle status.
func (a *Base) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *Base) setStatus(s Status) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// Config returns a copy of the agent's configuration.
func (a *Base) Config() Config { return a.config.Clone() }

// Suspend forces the agent into StatusSuspended from any state.
func (a *Base) Suspend() { a.setStatus(StatusSuspended) }

// Resume returns the agent to StatusIdle, but only if currently
// StatusSuspended.
func (a *Base) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status == StatusSuspended {
		a.status = StatusIdle
	}
}

// Execute runs the agent body under lifecycle framing: sets status to
// RUNNING, records start time, invokes Run, and maps the outcome to a
// Result. Execute never retries, times out, or consults a circuit breaker.
// cleanup runs on every exit path.
func (a *Base) Execute(ctx Context, input any) (result Result) {
	a.setStatus(StatusRunning)
	start := time.Now()

	defer func() {
		if a.cleanup != nil {
			a.cleanup()
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			a.setStatus(StatusFailed)
			result = Failure(mapPanic(a.config.ID, r), Metrics{ExecutionTime: time.Since(start)})
		}
	}()

	data, err := a.run(ctx, input)
	metrics := Metrics{ExecutionTime: time.Since(start)}
	if err != nil {
		a.setStatus(StatusFailed)
		return Failure(mapRunError(a.config.ID, err), metrics)
	}
	a.setStatus(StatusCompleted)
	return Success(data, metrics)
}

// Run invokes the wrapped body directly, without lifecycle framing.
func (a *Base) Run(ctx Context, input any) (any, error) {
	return a.run(ctx, input)
}

// HandleMessage reacts to an inbound message by delegating to the
// configured handler (defaultHandleMessage unless overridden).
func (a *Base) HandleMessage(msg Message) Result {
	return a.handler(a, msg)
}

// defaultHandleMessage synthesizes a Context from msg and calls Execute.
func defaultHandleMessage(a *Base, msg Message) Result {
	ctx := Context{
		AgentID:       a.config.ID,
		RequestID:     msg.ID,
		Timestamp:     time.Now(),
		CorrelationID: msg.CorrelationID,
		Metadata:      msg.Metadata,
	}
	return a.Execute(ctx, msg.Payload)
}

// mapRunError wraps a plain error from Run into an AGENT_ERROR core.Error,
// preserving an existing core.Error's code if Run already raised one.
func mapRunError(agentID string, err error) *core.Error {
	if ce, ok := err.(*core.Error); ok {
		return ce
	}
	return core.NewError(fmt.Sprintf("agent[%s].Run", agentID), core.ErrAgentError, err.Error(), err)
}

// mapPanic converts a recovered panic value into an UNKNOWN_ERROR
// core.Error.
func mapPanic(agentID string, r any) *core.Error {
	return core.NewError(fmt.Sprintf("agent[%s].Run", agentID), core.ErrUnknown, fmt.Sprintf("panic: %v", r), nil)
}
