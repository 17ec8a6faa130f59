package o11y

import (
	"context"
	"time"
)

// ExecutionExporter is implemented by backends that capture completed agent
// execution records for analysis or debugging. The bundled providers cover
// Langfuse, LangSmith, Opik, and Arize Phoenix; custom analytics stores
// implement the same interface.
type ExecutionExporter interface {
	// ExportExecution sends a completed execution record to the backend.
	ExportExecution(ctx context.Context, data ExecutionData) error
}

// ExecutionData captures the full details of a single agent execution for
// export to observability backends.
type ExecutionData struct {
	// AgentID is the executed agent's identifier.
	AgentID string

	// AgentType is the agent config's free-form type classification.
	AgentType string

	// RequestID uniquely identifies the execution.
	RequestID string

	// CorrelationID links the execution to related messages and
	// executions.
	CorrelationID string

	// Duration is the wall-clock time of the execution, including
	// retries and fallback.
	Duration time.Duration

	// RetryCount is the number of retries consumed before the final
	// outcome.
	RetryCount int

	// FallbackUsed reports whether a fallback agent produced the outcome.
	FallbackUsed bool

	// Input is the execution input, serialised as a generic value for
	// backend-agnostic export.
	Input any

	// Output is the execution result data on success.
	Output any

	// Error is non-empty when the execution failed; it carries the stable
	// error code and message.
	Error string

	// Metadata carries additional key-value data such as correlation
	// labels or host-defined tags.
	Metadata map[string]any
}

// MultiExporter fans execution records out to multiple ExecutionExporters.
// All exporters are called even if one fails; the first error encountered
// is returned.
type MultiExporter struct {
	exporters []ExecutionExporter
}

// NewMultiExporter creates a MultiExporter that writes to all given
// exporters.
func NewMultiExporter(exporters ...ExecutionExporter) *MultiExporter {
	return &MultiExporter{exporters: exporters}
}

// ExportExecution sends data to every registered exporter. All exporters
// are called even if one returns an error; the first error is returned.
func (m *MultiExporter) ExportExecution(ctx context.Context, data ExecutionData) error {
	var firstErr error
	for _, exp := range m.exporters {
		if err := exp.ExportExecution(ctx, data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
