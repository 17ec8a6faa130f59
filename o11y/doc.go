// Package o11y provides the kernel's observability primitives:
// OpenTelemetry-based tracing and metrics, structured logging via slog,
// health checks, a lifecycle event publisher, and execution-record
// exporting to external analysis backends.
//
// # Tracing
//
// Tracing is built on OpenTelemetry. [StartSpan] creates spans with typed
// attributes, and [InitTracer] configures the global OTel tracer provider:
//
//	shutdown, err := o11y.InitTracer("my-service",
//	    o11y.WithSpanExporter(exporter),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer shutdown()
//
//	ctx, span := o11y.StartSpan(ctx, "orchestrator.execute_agent", o11y.Attrs{
//	    o11y.AttrAgentID:   "worker-1",
//	    o11y.AttrRequestID: requestID,
//	})
//	defer span.End()
//
// The [Span] interface wraps OTel spans with a simplified API for setting
// attributes, recording errors, and setting status codes.
//
// # Metrics
//
// Pre-registered instruments track execution counts and durations, retries,
// and bus traffic:
//
//	o11y.RecordExecution(ctx, agentID, elapsed, result.Success)
//	o11y.RecordRetries(ctx, agentID, result.Metrics.RetryCount)
//	o11y.RecordMessage(ctx, from, msgType)
//
// [InitMeter] configures the package-level meter with a service name.
// Generic [Counter] and [Histogram] functions allow recording custom metrics.
//
// # Logging
//
// [Logger] wraps slog.Logger with context-aware convenience methods and
// functional options for configuration:
//
//	logger := o11y.NewLogger(
//	    o11y.WithLogLevel("debug"),
//	    o11y.WithJSON(),
//	)
//	logger.Info(ctx, "execution completed",
//	    "agent_id", "worker-1",
//	    "retry_count", 2,
//	)
//
// Loggers propagate through context via [WithLogger] and [FromContext].
//
// # Lifecycle Events
//
// [EventPublisher] buffers kernel lifecycle events (agent.started,
// agent.completed, agent.failed, message.sent, message.received,
// fallback.triggered, circuit.breaker.opened, circuit.breaker.closed) for a
// host process to consume as a pull-based stream. Publishing never blocks
// and never fails the originating operation:
//
//	events := o11y.NewEventPublisher(256, logger)
//	go func() {
//	    for e, _ := range events.Events() {
//	        if e.Type == core.EventDone {
//	            break
//	        }
//	        sink.Record(e.Payload)
//	    }
//	}()
//
// # Execution Exporting
//
// The [ExecutionExporter] interface captures completed execution records for
// analysis backends. [ExecutionData] holds the full details of a single
// execution including timing, retries, fallback use, input, and output.
// [MultiExporter] fans out to multiple backends simultaneously:
//
//	multi := o11y.NewMultiExporter(langfuseExp, phoenixExp)
//	err := multi.ExportExecution(ctx, data)
//
// Provider implementations include Langfuse, LangSmith, Opik, and Phoenix
// in the o11y/providers/ subpackages.
//
// # Health Checks
//
// The [HealthChecker] interface provides health probes for components.
// [HealthRegistry] aggregates named checkers and runs them concurrently
// via [HealthRegistry.CheckAll]:
//
//	registry := o11y.NewHealthRegistry()
//	registry.Register("orchestrator", orchChecker)
//	registry.Register("transport", transportChecker)
//	results := registry.CheckAll(ctx)
//
// [HealthCheckerFunc] adapts plain functions to the HealthChecker interface.
package o11y
