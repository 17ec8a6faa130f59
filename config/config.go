package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lookatitude/beluga-kernel/orchestrator"
)

// Config holds all configuration for a kernel host process. Tags are used
// by Viper to map config file keys and environment variables.
type Config struct {
	Orchestrator struct {
		FallbackEnabled     bool          `mapstructure:"fallback_enabled"`
		MaxConcurrentAgents int           `mapstructure:"max_concurrent_agents"`
		DefaultTimeout      time.Duration `mapstructure:"default_timeout"`
	} `mapstructure:"orchestrator"`

	Breaker struct {
		Threshold         int           `mapstructure:"threshold"`
		OpenTimeout       time.Duration `mapstructure:"open_timeout"`
		HalfOpenSuccesses int           `mapstructure:"half_open_successes"`
	} `mapstructure:"breaker"`

	Logging struct {
		Level string `mapstructure:"level"`
		JSON  bool   `mapstructure:"json"`
	} `mapstructure:"logging"`

	Events struct {
		BufferSize int `mapstructure:"buffer_size"`
	} `mapstructure:"events"`

	// State configures the persistent state provider by name; the Options
	// map passes through to the provider factory.
	State ProviderConfig `mapstructure:"state"`
}

// OrchestratorConfig converts the loaded settings into the orchestrator's
// own config type.
func (c *Config) OrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		FallbackEnabled:     c.Orchestrator.FallbackEnabled,
		MaxConcurrentAgents: c.Orchestrator.MaxConcurrentAgents,
		DefaultTimeout:      c.Orchestrator.DefaultTimeout,
	}
}

// BreakerSettings converts the loaded settings into the FallbackManager's
// breaker parameters.
func (c *Config) BreakerSettings() orchestrator.BreakerSettings {
	return orchestrator.BreakerSettings{
		Threshold:         c.Breaker.Threshold,
		OpenTimeout:       c.Breaker.OpenTimeout,
		HalfOpenSuccesses: c.Breaker.HalfOpenSuccesses,
	}
}

// Cfg is the process-wide configuration populated by LoadConfig.
var Cfg Config

// LoadConfig reads configuration from file and environment variables.
// It searches for a "kernel.yaml" in the current directory, /etc/beluga/,
// $HOME/.beluga, and any additional paths given. Environment variables use
// the BELUGA prefix, e.g. BELUGA_ORCHESTRATOR_MAX_CONCURRENT_AGENTS.
func LoadConfig(configPaths ...string) error {
	v := viper.New()

	v.SetDefault("orchestrator.fallback_enabled", true)
	v.SetDefault("orchestrator.max_concurrent_agents", 10)
	v.SetDefault("orchestrator.default_timeout", time.Duration(0))
	v.SetDefault("breaker.threshold", 5)
	v.SetDefault("breaker.open_timeout", 60*time.Second)
	v.SetDefault("breaker.half_open_successes", 3)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
	v.SetDefault("events.buffer_size", 256)
	v.SetDefault("state.provider", "inmemory")

	v.SetConfigName("kernel")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/beluga/")
	v.AddConfigPath("$HOME/.beluga")
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment variables apply.
	}

	v.SetEnvPrefix("BELUGA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&Cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if Cfg.Orchestrator.MaxConcurrentAgents < 1 {
		return fmt.Errorf("config: orchestrator.max_concurrent_agents must be >= 1, got %d", Cfg.Orchestrator.MaxConcurrentAgents)
	}

	return nil
}
