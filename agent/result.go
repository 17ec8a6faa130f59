package agent

import (
	"time"

	"github.com/lookatitude/beluga-kernel/core"
)

// Metrics carries measurements collected around an execution. Fields other
// than ExecutionTime are populated only when available.
type Metrics struct {
	// ExecutionTime is the wall-clock duration of the call that produced
	// this Result.
	ExecutionTime time.Duration

	// MemoryUsed is an optional memory-usage sample in bytes. Zero means
	// not measured.
	MemoryUsed int64

	// RetryCount is the number of retries (not counting the first attempt)
	// consumed before this Result was produced.
	RetryCount int

	// MessagesProcessed optionally counts inbound messages handled as part
	// of producing this Result.
	MessagesProcessed int
}

// ResultError is the structured error carried by a failed Result. Code is
// the stable, programmatically-branchable field; Message is diagnostic only.
type ResultError struct {
	Code    core.ErrorCode
	Message string
	Details map[string]any
	Stack   string
}

// Error satisfies the error interface so a ResultError can be returned or
// wrapped like any other error.
func (e *ResultError) Error() string {
	if e == nil {
		return ""
	}
	return string(e.Code) + ": " + e.Message
}

// Result is the tagged outcome of an execution: either Success is true and
// Data/Metrics are populated, or Success is false and Err/Metrics are
// populated. Data and the payload inside Err.Details are deliberately
// opaque (any); the kernel never inspects them.
type Result struct {
	Success bool
	Data    any
	Err     *ResultError
	Metrics Metrics
}

// Success builds a successful Result.
func Success(data any, metrics Metrics) Result {
	return Result{Success: true, Data: data, Metrics: metrics}
}

// Failure builds a failed Result from a core.Error (or any error, coerced
// to core.ErrorCode ErrUnknown if it isn't one).
func Failure(err error, metrics Metrics) Result {
	var ce *core.Error
	if e, ok := err.(*core.Error); ok {
		ce = e
	} else {
		ce = core.NewError("", core.CodeOf(err), err.Error(), err)
	}
	return Result{
		Success: false,
		Err: &ResultError{
			Code:    ce.Code,
			Message: ce.Message,
			Details: ce.Details,
			Stack:   ce.Stack,
		},
		Metrics: metrics,
	}
}
