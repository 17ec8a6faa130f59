package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lookatitude/beluga-kernel/agent"
	"github.com/lookatitude/beluga-kernel/bus"
	"github.com/lookatitude/beluga-kernel/core"
	"github.com/lookatitude/beluga-kernel/o11y"
	"github.com/lookatitude/beluga-kernel/resilience"
)

// Config holds the orchestrator's own knobs. It is what the config package
// loads from file and environment.
type Config struct {
	// FallbackEnabled turns the fallback path on for every execution whose
	// agent names a fallback agent.
	FallbackEnabled bool `mapstructure:"fallback_enabled" json:"fallback_enabled"`

	// MaxConcurrentAgents bounds the number of executions simultaneously
	// in flight. Values <= 0 default to 10.
	MaxConcurrentAgents int `mapstructure:"max_concurrent_agents" json:"max_concurrent_agents" default:"10" validate:"min=1"`

	// DefaultTimeout applies to executions whose agent config carries no
	// timeout of its own. Zero means no kernel-imposed deadline.
	DefaultTimeout time.Duration `mapstructure:"default_timeout" json:"default_timeout"`
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrentAgents <= 0 {
		c.MaxConcurrentAgents = 10
	}
	return c
}

// StateObserver is the write side of the optional persistent state store.
// Observer failures are logged and never fail the originating operation.
// state.AgentStore satisfies this interface.
type StateObserver interface {
	UpdateAgentStatus(ctx context.Context, agentID string, status agent.Status) error
	IncrementExecutionCount(ctx context.Context, agentID string) error
	DeleteAgentState(ctx context.Context, agentID string) error
}

// Orchestrator is the top-level facade: it owns the set of registered
// agents and the FallbackManager, enforces the global concurrency cap,
// builds per-invocation Contexts, and wires each agent's inbound messages
// from the Bus to its HandleMessage.
type Orchestrator struct {
	cfg    Config
	bus    *bus.Bus
	fm     *FallbackManager
	logger *o11y.Logger
	events *o11y.EventPublisher
	store  StateObserver

	mu       sync.Mutex
	agents   map[string]agent.Agent
	running  map[string]int
	inflight int
	down     bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger injects the logger the orchestrator and its FallbackManager
// report through.
func WithLogger(l *o11y.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithEventPublisher attaches an event publisher for kernel lifecycle
// events.
func WithEventPublisher(p *o11y.EventPublisher) Option {
	return func(o *Orchestrator) { o.events = p }
}

// WithStateStore attaches a persistent state observer.
func WithStateStore(s StateObserver) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithBreakers overrides the circuit breaker parameters for agents
// registered with this orchestrator.
func WithBreakers(s BreakerSettings) Option {
	return func(o *Orchestrator) { o.fm.breakerSettings = s }
}

// New creates an Orchestrator over b. The orchestrator borrows b; the bus
// and its transport must outlive the orchestrator.
func New(cfg Config, b *bus.Bus, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg.withDefaults(),
		bus:     b,
		fm:      NewFallbackManager(),
		agents:  make(map[string]agent.Agent),
		running: make(map[string]int),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = o11y.NewLogger()
	}
	o.fm.logger = o.logger
	o.fm.events = o.events
	return o
}

// RegisterAgent stores a, creates its circuit breaker, and subscribes its
// message handler on the Bus. A duplicate id fails with ALREADY_REGISTERED.
func (o *Orchestrator) RegisterAgent(a agent.Agent) error {
	id := a.ID()
	if id == "" {
		return core.NewError("orchestrator.RegisterAgent", core.ErrAgentError, "agent id must not be empty", nil)
	}

	o.mu.Lock()
	if _, exists := o.agents[id]; exists {
		o.mu.Unlock()
		return core.NewError("orchestrator.RegisterAgent", core.ErrAlreadyRegistered,
			"agent "+id+" is already registered", nil)
	}
	o.agents[id] = a
	o.mu.Unlock()

	o.fm.Register(a)

	if err := o.bus.Subscribe(id, o.messageHandler(a)); err != nil {
		o.mu.Lock()
		delete(o.agents, id)
		o.mu.Unlock()
		o.fm.Unregister(id)
		return core.NewError("orchestrator.RegisterAgent", core.ErrAgentError,
			"subscribe failed for agent "+id, err)
	}

	o.logger.Info(context.Background(), "agent registered", "agent_id", id, "type", a.Config().Type)
	return nil
}

// messageHandler builds the Bus handler for a. Failures raised by
// HandleMessage are caught and reported, never propagated back into the
// Bus delivery path.
func (o *Orchestrator) messageHandler(a agent.Agent) bus.Handler {
	return func(msg bus.Message) {
		ctx := context.Background()
		if o.events != nil {
			o.events.Publish(ctx, o11y.Event{
				Type:          o11y.EventMessageReceived,
				AgentID:       a.ID(),
				CorrelationID: msg.CorrelationID,
				Data:          map[string]any{"message_id": msg.ID, "from": msg.From, "type": msg.Type},
			})
		}

		defer func() {
			if r := recover(); r != nil {
				o.logger.Error(ctx, "message handler panicked",
					"agent_id", a.ID(), "message_id", msg.ID, "panic", r)
			}
		}()

		result := a.HandleMessage(agent.Message{
			ID:            msg.ID,
			From:          msg.From,
			To:            msg.To,
			Type:          msg.Type,
			Payload:       msg.Payload,
			CorrelationID: msg.CorrelationID,
			ReplyTo:       msg.ReplyTo,
			Metadata:      msg.Metadata,
		})
		if !result.Success && result.Err != nil {
			o.logger.Warn(ctx, "message handling failed",
				"agent_id", a.ID(), "message_id", msg.ID,
				"code", string(result.Err.Code), "error", result.Err.Message)
		}
	}
}

// UnregisterAgent removes the agent, unsubscribes it from the Bus, and
// clears any running-set entries. Idempotent.
func (o *Orchestrator) UnregisterAgent(id string) {
	o.mu.Lock()
	_, existed := o.agents[id]
	delete(o.agents, id)
	if n, ok := o.running[id]; ok {
		o.inflight -= n
		delete(o.running, id)
	}
	o.mu.Unlock()

	o.fm.Unregister(id)
	_ = o.bus.Unsubscribe(id)

	if existed && o.store != nil {
		if err := o.store.DeleteAgentState(context.Background(), id); err != nil {
			o.logger.Warn(context.Background(), "state store delete failed", "agent_id", id, "error", err.Error())
		}
	}
}

// ExecuteAgent admits, protects, and runs one execution of agentID.
// partial, when non-nil, contributes CorrelationID and Metadata to the
// generated Context; AgentID and RequestID are always kernel-authoritative.
func (o *Orchestrator) ExecuteAgent(ctx context.Context, agentID string, input any, partial *agent.Context) agent.Result {
	o.mu.Lock()
	a, ok := o.agents[agentID]
	if !ok {
		o.mu.Unlock()
		return agent.Failure(
			core.NewError("orchestrator.ExecuteAgent", core.ErrAgentNotFound,
				"agent "+agentID+" is not registered", nil),
			agent.Metrics{},
		)
	}
	// Admission is atomic with insertion into the running set; a burst of
	// callers cannot overshoot the cap.
	if o.inflight >= o.cfg.MaxConcurrentAgents {
		o.mu.Unlock()
		return agent.Failure(
			core.NewError("orchestrator.ExecuteAgent", core.ErrMaxConcurrentLimit,
				"max concurrent agent limit reached", nil).
				WithDetails(map[string]any{"max_concurrent_agents": o.cfg.MaxConcurrentAgents}),
			agent.Metrics{},
		)
	}
	o.inflight++
	o.running[agentID]++
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		// Unregister or Shutdown may have already cleared this entry.
		if n, ok := o.running[agentID]; ok {
			o.inflight--
			if n <= 1 {
				delete(o.running, agentID)
			} else {
				o.running[agentID] = n - 1
			}
		}
		o.mu.Unlock()
	}()

	actx := agent.Context{
		AgentID:   agentID,
		RequestID: uuid.NewString(),
		Timestamp: time.Now(),
	}.Merge(partial)

	ctx = core.WithRequestID(ctx, actx.RequestID)
	if timeout := o.effectiveTimeout(a); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ctx, span := o11y.StartSpan(ctx, "orchestrator.execute_agent", o11y.Attrs{
		o11y.AttrAgentID:   agentID,
		o11y.AttrRequestID: actx.RequestID,
	})
	defer span.End()

	o.observeStart(ctx, agentID, actx)
	start := time.Now()

	fc := FallbackConfig{
		Enabled:             o.cfg.FallbackEnabled,
		FallbackAgentID:     a.Config().FallbackAgentID,
		MaxFallbackAttempts: 2,
		Strategy:            "circuit-breaker",
	}
	result := o.fm.ExecuteWithFallback(ctx, agentID, actx, input, fc)

	o11y.RecordExecution(ctx, agentID, time.Since(start), result.Success)
	o11y.RecordRetries(ctx, agentID, result.Metrics.RetryCount)
	o.observeFinish(ctx, agentID, actx, result, span)
	return result
}

func (o *Orchestrator) effectiveTimeout(a agent.Agent) time.Duration {
	if t := a.Config().Timeout; t > 0 {
		return t
	}
	return o.cfg.DefaultTimeout
}

func (o *Orchestrator) observeStart(ctx context.Context, agentID string, actx agent.Context) {
	if o.events != nil {
		o.events.Publish(ctx, o11y.Event{
			Type:          o11y.EventAgentStarted,
			AgentID:       agentID,
			RequestID:     actx.RequestID,
			CorrelationID: actx.CorrelationID,
		})
	}
	if o.store != nil {
		if err := o.store.UpdateAgentStatus(ctx, agentID, agent.StatusRunning); err != nil {
			o.logger.Warn(ctx, "state store status update failed", "agent_id", agentID, "error", err.Error())
		}
	}
}

func (o *Orchestrator) observeFinish(ctx context.Context, agentID string, actx agent.Context, result agent.Result, span o11y.Span) {
	status := agent.StatusCompleted
	eventType := o11y.EventAgentCompleted
	data := map[string]any{"retry_count": result.Metrics.RetryCount}

	if result.Success {
		span.SetStatus(o11y.StatusOK, "")
	} else {
		status = agent.StatusFailed
		eventType = o11y.EventAgentFailed
		if result.Err != nil {
			data["code"] = string(result.Err.Code)
			span.RecordError(result.Err)
		}
		span.SetStatus(o11y.StatusError, "execution failed")
	}
	span.SetAttributes(o11y.Attrs{o11y.AttrRetryCount: result.Metrics.RetryCount})

	if o.events != nil {
		o.events.Publish(ctx, o11y.Event{
			Type:          eventType,
			AgentID:       agentID,
			RequestID:     actx.RequestID,
			CorrelationID: actx.CorrelationID,
			Data:          data,
		})
	}
	if o.store != nil {
		if err := o.store.UpdateAgentStatus(ctx, agentID, status); err != nil {
			o.logger.Warn(ctx, "state store status update failed", "agent_id", agentID, "error", err.Error())
		}
		if err := o.store.IncrementExecutionCount(ctx, agentID); err != nil {
			o.logger.Warn(ctx, "state store count update failed", "agent_id", agentID, "error", err.Error())
		}
	}
}

// SendMessage is a passthrough to the Bus. It additionally publishes a
// message.sent event when a publisher is attached.
func (o *Orchestrator) SendMessage(ctx context.Context, from, to, msgType string, payload any, opts bus.SendOptions) (string, error) {
	id, err := o.bus.Send(from, to, msgType, payload, opts)
	if err == nil {
		o11y.RecordMessage(ctx, from, msgType)
	}
	if err == nil && o.events != nil {
		o.events.Publish(ctx, o11y.Event{
			Type:          o11y.EventMessageSent,
			AgentID:       from,
			CorrelationID: opts.CorrelationID,
			Data:          map[string]any{"message_id": id, "to": to, "type": msgType},
		})
	}
	return id, err
}

// BroadcastMessage is a passthrough to the Bus's Broadcast.
func (o *Orchestrator) BroadcastMessage(ctx context.Context, from string, recipients []string, msgType string, payload any, opts bus.SendOptions) bus.BroadcastResult {
	res := o.bus.Broadcast(from, recipients, msgType, payload, opts)
	if o.events != nil {
		for i, id := range res.IDs {
			o.events.Publish(ctx, o11y.Event{
				Type:          o11y.EventMessageSent,
				AgentID:       from,
				CorrelationID: opts.CorrelationID,
				Data:          map[string]any{"message_id": id, "to": recipients[i], "type": msgType},
			})
		}
	}
	return res
}

// GetAgentStatus reports the lifecycle status of a registered agent.
func (o *Orchestrator) GetAgentStatus(agentID string) (agent.Status, error) {
	o.mu.Lock()
	a, ok := o.agents[agentID]
	o.mu.Unlock()
	if !ok {
		return "", core.NewError("orchestrator.GetAgentStatus", core.ErrAgentNotFound,
			"agent "+agentID+" is not registered", nil)
	}
	return a.Status(), nil
}

// GetCircuitState reports the breaker state for a registered agent.
func (o *Orchestrator) GetCircuitState(agentID string) (resilience.State, error) {
	s := o.fm.CircuitState(agentID)
	if s == "" {
		return "", core.NewError("orchestrator.GetCircuitState", core.ErrAgentNotFound,
			"agent "+agentID+" is not registered", nil)
	}
	return s, nil
}

// GetRunningAgentCount reports the number of executions currently in
// flight.
func (o *Orchestrator) GetRunningAgentCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inflight
}

// GetRegisteredAgents returns the ids of all registered agents.
func (o *Orchestrator) GetRegisteredAgents() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.agents))
	for id := range o.agents {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown unsubscribes every registered agent from the Bus and clears the
// registration and running sets. Safe to call multiple times.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	ids := make([]string, 0, len(o.agents))
	for id := range o.agents {
		ids = append(ids, id)
	}
	o.agents = make(map[string]agent.Agent)
	o.running = make(map[string]int)
	o.inflight = 0
	o.down = true
	o.mu.Unlock()

	for _, id := range ids {
		_ = o.bus.Unsubscribe(id)
		o.fm.Unregister(id)
	}
	o.logger.Info(context.Background(), "orchestrator shut down", "agents_unsubscribed", len(ids))
}

// Start marks the orchestrator live. It exists so the orchestrator can be
// sequenced by a core.App alongside other Lifecycle components.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	o.down = false
	o.mu.Unlock()
	return nil
}

// Stop is Shutdown under the core.Lifecycle name.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.Shutdown()
	return nil
}

// Health reports unhealthy after Shutdown or Stop until Start is called
// again, and healthy otherwise.
func (o *Orchestrator) Health() core.HealthStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.down {
		return core.HealthStatus{
			Status:    core.HealthUnhealthy,
			Message:   "orchestrator is shut down",
			Timestamp: time.Now(),
		}
	}
	return core.HealthStatus{
		Status:    core.HealthHealthy,
		Timestamp: time.Now(),
	}
}

var _ core.Lifecycle = (*Orchestrator)(nil)
