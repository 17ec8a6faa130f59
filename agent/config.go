package agent

import "time"

// RetryPolicy controls how a FallbackManager retries a failing agent
// execution before giving up or handing off to a fallback agent. A nil
// RetryPolicy on an AgentConfig is equivalent to MaxAttempts: 1 (no retries).
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Must be >= 1.
	MaxAttempts int

	// InitialDelay is the wait before the first retry. Must be >= 0.
	InitialDelay time.Duration

	// BackoffMultiplier scales the delay after each failed attempt. Must
	// be >= 1.0.
	BackoffMultiplier float64

	// MaxDelay caps the computed backoff delay. Must be >= InitialDelay.
	MaxDelay time.Duration
}

// defaultRetryPolicy is used whenever an AgentConfig carries no policy.
func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       1,
		InitialDelay:      1000 * time.Millisecond,
		BackoffMultiplier: 2,
		MaxDelay:          30000 * time.Millisecond,
	}
}

// Config is the immutable-after-registration configuration of an agent.
// ID is the sole identity key: two configs sharing an ID cannot coexist
// within one orchestrator.
type Config struct {
	// ID uniquely identifies the agent within an orchestrator. Required.
	ID string

	// Name is a human-readable label. Optional.
	Name string

	// Type is a free-form classification string. Optional.
	Type string

	// Timeout is an advisory per-execution deadline. Zero means no timeout
	// is imposed by the kernel beyond the caller's own context.
	Timeout time.Duration

	// RetryPolicy configures the FallbackManager's retry behaviour for
	// this agent. Nil means no retries (single attempt).
	RetryPolicy *RetryPolicy

	// FallbackAgentID names the agent to invoke when this agent's retry
	// sequence is exhausted. Optional.
	FallbackAgentID string

	// Memory is an advisory hint about the agent's memory backend; the
	// kernel never inspects it.
	Memory string

	// Metadata is an arbitrary, opaque key-value bag carried alongside
	// the config.
	Metadata map[string]any
}

// Option configures a Config. Follows the same functional-option shape
// used throughout this codebase (see core.Option for the generic form).
type Option func(*Config)

// WithName sets the agent's display name.
func WithName(name string) Option {
	return func(c *Config) { c.Name = name }
}

// WithType sets the agent's free-form type classification.
func WithType(t string) Option {
	return func(c *Config) { c.Type = t }
}

// WithTimeout sets an advisory per-execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// WithRetryPolicy sets the retry policy consulted by the FallbackManager.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Config) { c.RetryPolicy = &p }
}

// WithFallbackAgentID names the agent to fall back to on exhaustion.
func WithFallbackAgentID(id string) Option {
	return func(c *Config) { c.FallbackAgentID = id }
}

// WithMemoryHint sets the advisory memory-backend hint.
func WithMemoryHint(hint string) Option {
	return func(c *Config) { c.Memory = hint }
}

// WithMetadata sets arbitrary metadata on the config.
func WithMetadata(meta map[string]any) Option {
	return func(c *Config) { c.Metadata = meta }
}

// NewConfig builds a Config for the given agent id, applying opts in order.
func NewConfig(id string, opts ...Option) Config {
	cfg := Config{ID: id}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// EffectiveRetryPolicy returns c.RetryPolicy if set, otherwise the default
// single-attempt policy.
func (c Config) EffectiveRetryPolicy() RetryPolicy {
	if c.RetryPolicy != nil {
		return *c.RetryPolicy
	}
	return defaultRetryPolicy()
}

// Clone returns a deep-enough copy of c so that callers mutating the
// returned value cannot affect the original (maps are copied).
func (c Config) Clone() Config {
	out := c
	if c.RetryPolicy != nil {
		rp := *c.RetryPolicy
		out.RetryPolicy = &rp
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
