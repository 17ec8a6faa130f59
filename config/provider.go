package config

import "time"

// ProviderConfig holds common configuration for any pluggable backend
// (state store, remote transport, execution exporter). Backend-specific
// options live in the Options map.
//
// Example JSON:
//
//	{
//	  "provider": "langfuse",
//	  "api_key": "pk-...",
//	  "base_url": "https://cloud.langfuse.com",
//	  "timeout": 10000000000,
//	  "options": {"workspace": "default"}
//	}
type ProviderConfig struct {
	// Provider is the registered provider name (e.g. "inmemory",
	// "langfuse").
	Provider string `json:"provider" mapstructure:"provider" validate:"required"`

	// APIKey is the authentication key for the backend, when it needs one.
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// BaseURL overrides the backend's default endpoint.
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// Timeout is the maximum duration for a single backend request.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout" default:"30000000000"`

	// Options holds provider-specific key-value configuration.
	Options map[string]any `json:"options" mapstructure:"options"`
}

// GetOption retrieves a typed value from the provider's Options map.
// It returns the value and true if the key exists and the type assertion
// succeeds, or the zero value of T and false otherwise.
//
// Usage:
//
//	interval, ok := config.GetOption[float64](cfg, "poll_interval_ms")
func GetOption[T any](cfg ProviderConfig, key string) (T, bool) {
	var zero T
	if cfg.Options == nil {
		return zero, false
	}
	v, ok := cfg.Options[key]
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
