// Package orchestrator is the kernel's top layer: the FallbackManager that
// composes circuit breaking, retry, and fallback around every agent
// execution, and the Orchestrator facade that registers agents, enforces
// the global concurrency cap, and routes bus traffic to handlers.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/lookatitude/beluga-kernel/agent"
	"github.com/lookatitude/beluga-kernel/core"
	"github.com/lookatitude/beluga-kernel/o11y"
	"github.com/lookatitude/beluga-kernel/resilience"
)

// FallbackConfig controls how ExecuteWithFallback reacts when the primary
// agent's protected execution fails.
type FallbackConfig struct {
	// Enabled gates the fallback path as a whole.
	Enabled bool

	// FallbackAgentID names the agent to hand off to. Empty disables
	// fallback even when Enabled is true.
	FallbackAgentID string

	// MaxFallbackAttempts bounds the fallback agent's invocations. Values
	// <= 0 default to 2.
	MaxFallbackAttempts int

	// Strategy labels the protection composition for diagnostics. The
	// only strategy the kernel implements is "circuit-breaker".
	Strategy string
}

// BreakerSettings configures the CircuitBreaker created for each registered
// agent. Zero values fall back to the resilience package defaults
// (threshold 5, open timeout 60s, 3 half-open successes).
type BreakerSettings struct {
	Threshold         int
	OpenTimeout       time.Duration
	HalfOpenSuccesses int
}

// FallbackManager owns one CircuitBreaker per registered agent and composes
// circuit gate -> bounded retry -> agent execution -> optional fallback.
// It never observes or mutates an agent's status directly; all interaction
// goes through Execute.
type FallbackManager struct {
	breakerSettings BreakerSettings
	logger          *o11y.Logger
	events          *o11y.EventPublisher

	mu       sync.Mutex
	agents   map[string]agent.Agent
	breakers map[string]*resilience.CircuitBreaker
}

// FallbackManagerOption configures a FallbackManager.
type FallbackManagerOption func(*FallbackManager)

// WithBreakerSettings overrides the circuit breaker parameters used for
// every agent registered after the option is applied.
func WithBreakerSettings(s BreakerSettings) FallbackManagerOption {
	return func(fm *FallbackManager) { fm.breakerSettings = s }
}

// WithFallbackLogger injects the logger the manager reports through.
func WithFallbackLogger(l *o11y.Logger) FallbackManagerOption {
	return func(fm *FallbackManager) { fm.logger = l }
}

// WithFallbackEvents injects an event publisher for fallback.triggered and
// circuit.breaker.* events.
func WithFallbackEvents(p *o11y.EventPublisher) FallbackManagerOption {
	return func(fm *FallbackManager) { fm.events = p }
}

// NewFallbackManager creates an empty FallbackManager.
func NewFallbackManager(opts ...FallbackManagerOption) *FallbackManager {
	fm := &FallbackManager{
		agents:   make(map[string]agent.Agent),
		breakers: make(map[string]*resilience.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(fm)
	}
	if fm.logger == nil {
		fm.logger = o11y.NewLogger()
	}
	return fm
}

// Register stores a and creates its CircuitBreaker. Re-registering the same
// id replaces the agent but keeps the existing breaker state; the
// Orchestrator's duplicate check makes that path unreachable in normal use.
func (fm *FallbackManager) Register(a agent.Agent) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	fm.agents[a.ID()] = a
	if _, ok := fm.breakers[a.ID()]; !ok {
		s := fm.breakerSettings
		fm.breakers[a.ID()] = resilience.NewCircuitBreaker(s.Threshold, s.OpenTimeout, s.HalfOpenSuccesses)
	}
}

// Unregister removes the agent and its breaker. Idempotent.
func (fm *FallbackManager) Unregister(agentID string) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	delete(fm.agents, agentID)
	delete(fm.breakers, agentID)
}

// CircuitState reports the breaker state for agentID, or "" if the agent is
// not registered.
func (fm *FallbackManager) CircuitState(agentID string) resilience.State {
	fm.mu.Lock()
	cb := fm.breakers[agentID]
	fm.mu.Unlock()
	if cb == nil {
		return ""
	}
	return cb.State()
}

func (fm *FallbackManager) lookup(agentID string) (agent.Agent, *resilience.CircuitBreaker, bool) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	a, ok := fm.agents[agentID]
	if !ok {
		return nil, nil, false
	}
	return a, fm.breakers[agentID], true
}

// ExecuteWithFallback runs the primary agent under its circuit breaker and
// retry policy. If the gate refuses the call or retries are exhausted, the
// configured fallback agent (if any) takes over; otherwise a failure Result
// with code EXECUTION_FAILED wrapping the underlying cause is returned.
func (fm *FallbackManager) ExecuteWithFallback(ctx context.Context, agentID string, actx agent.Context, input any, fc FallbackConfig) agent.Result {
	start := time.Now()

	primary, cb, ok := fm.lookup(agentID)
	if !ok {
		return agent.Failure(
			core.NewError("orchestrator.ExecuteWithFallback", core.ErrAgentNotFound,
				"agent "+agentID+" is not registered", nil),
			agent.Metrics{ExecutionTime: time.Since(start)},
		)
	}

	policy := toRetryPolicy(primary.Config().EffectiveRetryPolicy())
	before := cb.State()

	var attempts int
	gated, gateErr := cb.Gate(func() (any, error) {
		result, retries, err := resilience.Retry(ctx, policy, func(ctx context.Context, i int) (any, error) {
			attempts = i + 1
			r := primary.Execute(actx, input)
			if r.Success {
				return r, nil
			}
			return nil, resultError(agentID, r)
		})
		if err != nil {
			return nil, err
		}
		r := result.(agent.Result)
		r.Metrics.RetryCount = retries
		return r, nil
	})

	fm.publishCircuitTransition(ctx, agentID, before, cb.State())

	if gateErr == nil {
		r := gated.(agent.Result)
		r.Metrics.ExecutionTime = time.Since(start)
		return r
	}

	fm.logger.Warn(ctx, "primary agent execution failed",
		"agent_id", agentID, "request_id", actx.RequestID,
		"attempts", attempts, "error", gateErr.Error())

	if fc.Enabled && fc.FallbackAgentID != "" {
		if fm.events != nil {
			fm.events.Publish(ctx, o11y.Event{
				Type:          o11y.EventFallbackTriggered,
				AgentID:       agentID,
				RequestID:     actx.RequestID,
				CorrelationID: actx.CorrelationID,
				Data:          map[string]any{"fallback_agent_id": fc.FallbackAgentID},
			})
		}
		r := fm.ExecuteFallback(ctx, fc.FallbackAgentID, actx, input, fc.MaxFallbackAttempts)
		r.Metrics.ExecutionTime = time.Since(start)
		if attempts > 0 {
			r.Metrics.RetryCount = attempts - 1
		}
		return r
	}

	retryCount := 0
	if attempts > 0 {
		retryCount = attempts - 1
	}
	return agent.Failure(
		core.NewError("orchestrator.ExecuteWithFallback", core.ErrExecutionFailed, gateErr.Error(), gateErr).
			WithDetails(map[string]any{"cause": string(core.CodeOf(gateErr))}),
		agent.Metrics{ExecutionTime: time.Since(start), RetryCount: retryCount},
	)
}

// ExecuteFallback invokes the fallback agent up to maxAttempts times with
// no backoff and no circuit protection, returning the first success.
func (fm *FallbackManager) ExecuteFallback(ctx context.Context, fallbackAgentID string, actx agent.Context, input any, maxAttempts int) agent.Result {
	if maxAttempts <= 0 {
		maxAttempts = 2
	}

	fb, _, ok := fm.lookup(fallbackAgentID)
	if !ok {
		return agent.Failure(
			core.NewError("orchestrator.ExecuteFallback", core.ErrFallbackAgentNotFound,
				"fallback agent "+fallbackAgentID+" is not registered", nil),
			agent.Metrics{},
		)
	}

	var last agent.Result
	for i := 0; i < maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return agent.Failure(
				core.NewError("orchestrator.ExecuteFallback", core.ErrFallbackFailed, err.Error(), err),
				agent.Metrics{},
			)
		}
		last = fb.Execute(actx, input)
		if last.Success {
			return last
		}
	}

	msg := "fallback agent " + fallbackAgentID + " exhausted its attempts"
	var cause error
	if last.Err != nil {
		cause = last.Err
	}
	return agent.Failure(
		core.NewError("orchestrator.ExecuteFallback", core.ErrFallbackFailed, msg, cause),
		last.Metrics,
	)
}

func (fm *FallbackManager) publishCircuitTransition(ctx context.Context, agentID string, before, after resilience.State) {
	if fm.events == nil || before == after {
		return
	}
	switch after {
	case resilience.StateOpen:
		fm.events.Publish(ctx, o11y.Event{
			Type:    o11y.EventCircuitOpened,
			AgentID: agentID,
			Data:    map[string]any{"from": string(before)},
		})
	case resilience.StateClosed:
		fm.events.Publish(ctx, o11y.Event{
			Type:    o11y.EventCircuitClosed,
			AgentID: agentID,
			Data:    map[string]any{"from": string(before)},
		})
	}
}

// resultError lifts a logical failure (Success=false Result) into a raised
// error so the retry loop and circuit breaker can see it.
func resultError(agentID string, r agent.Result) error {
	if r.Err == nil {
		return core.NewError("agent["+agentID+"].Execute", core.ErrUnknown, "execution failed", nil)
	}
	return core.NewError("agent["+agentID+"].Execute", r.Err.Code, r.Err.Message, nil).
		WithDetails(r.Err.Details)
}

func toRetryPolicy(p agent.RetryPolicy) resilience.RetryPolicy {
	return resilience.RetryPolicy{
		MaxAttempts:       p.MaxAttempts,
		InitialDelay:      p.InitialDelay,
		BackoffMultiplier: p.BackoffMultiplier,
		MaxDelay:          p.MaxDelay,
	}
}
