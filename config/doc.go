// Package config provides configuration loading, validation, environment
// variable merging, provider configuration, and file watching for the
// kernel.
//
// Two loading paths coexist. [LoadConfig] is the host-process entry point:
// it reads a kernel.yaml via Viper, applies defaults, overlays BELUGA_*
// environment variables, and populates the package-level [Cfg]. The generic
// [Load] family handles arbitrary typed config structs from JSON files with
// struct-tag defaults and validation.
//
// # Loading the Kernel Configuration
//
//	if err := config.LoadConfig("/etc/myservice"); err != nil {
//	    log.Fatal(err)
//	}
//	orch := orchestrator.New(config.Cfg.OrchestratorConfig(), bus,
//	    orchestrator.WithBreakers(config.Cfg.BreakerSettings()),
//	)
//
// # Loading Typed Structs
//
// [Load] reads a JSON file and unmarshals it into a typed struct. Defaults
// from struct tags are applied to zero-valued fields the file did not
// provide, and the result is validated:
//
//	type HostConfig struct {
//	    Port    int    `json:"port" default:"8080" validate:"min=1,max=65535"`
//	    Host    string `json:"host" default:"localhost" validate:"required"`
//	    Debug   bool   `json:"debug" default:"false"`
//	}
//
//	cfg, err := config.Load[HostConfig]("config.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment Variables
//
// [LoadFromEnv] populates a config struct entirely from environment
// variables. Each exported field maps to PREFIX_FIELDNAME (uppercase):
//
//	cfg, err := config.LoadFromEnv[HostConfig]("BELUGA")
//	// reads BELUGA_PORT, BELUGA_HOST, BELUGA_DEBUG
//
// [MergeEnv] overlays environment variable values onto an existing config,
// only overriding fields with corresponding set variables:
//
//	config.MergeEnv(&cfg, "BELUGA")
//
// # Validation
//
// [Validate] checks a struct against its `validate` tags using
// go-playground/validator:
//
//   - validate:"required" — field must not be zero-valued
//   - validate:"min=N,max=M" — numeric fields must lie within bounds
//
// The full rule set of the library is available. The first failing rule
// is returned as a [*ValidationError] naming the json field.
//
// # Provider Configuration
//
// [ProviderConfig] holds common configuration for any pluggable backend
// (state store, remote transport, execution exporter), including provider
// name, API key, base URL, timeout, and a flexible Options map for
// backend-specific settings. [GetOption] retrieves typed values from the
// Options map:
//
//	interval, ok := config.GetOption[float64](cfg, "poll_interval_ms")
//
// # File Watching
//
// The [Watcher] interface abstracts configuration change detection.
// [FileWatcher] polls a file at regular intervals using SHA-256 content
// hashing; [NotifyWatcher] uses OS change notifications via fsnotify. Both
// invoke a callback with the raw new content when the file changes:
//
//	watcher := config.NewFileWatcher("kernel.yaml", 5*time.Second)
//	err := watcher.Watch(ctx, func(newConfig any) {
//	    data := newConfig.([]byte)
//	    // re-parse and apply configuration
//	})
package config
