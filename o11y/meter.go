package o11y

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meter holds the package-level OTel meter used by metric recording functions.
var meter metric.Meter

// Pre-registered kernel instruments.
var (
	executionCounter  metric.Int64Counter
	executionDuration metric.Float64Histogram
	retryCounter      metric.Int64Counter
	messageCounter    metric.Int64Counter

	meterOnce sync.Once
	meterErr  error
)

func init() {
	meter = otel.Meter("github.com/lookatitude/beluga-kernel/o11y")
}

// initInstruments lazily creates the pre-defined metric instruments. This is
// deferred so callers can configure the meter provider before first use.
func initInstruments() error {
	meterOnce.Do(func() {
		var err error

		executionCounter, err = meter.Int64Counter(
			"kernel.agent.executions",
			metric.WithDescription("Number of agent executions by outcome"),
			metric.WithUnit("{execution}"),
		)
		if err != nil {
			meterErr = err
			return
		}

		executionDuration, err = meter.Float64Histogram(
			"kernel.agent.execution.duration",
			metric.WithDescription("Duration of agent executions"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			meterErr = err
			return
		}

		retryCounter, err = meter.Int64Counter(
			"kernel.agent.retries",
			metric.WithDescription("Number of retries consumed by agent executions"),
			metric.WithUnit("{retry}"),
		)
		if err != nil {
			meterErr = err
			return
		}

		messageCounter, err = meter.Int64Counter(
			"kernel.bus.messages",
			metric.WithDescription("Number of messages accepted by the bus"),
			metric.WithUnit("{message}"),
		)
		if err != nil {
			meterErr = err
			return
		}
	})
	return meterErr
}

// InitMeter configures the package-level meter with the given service name.
// This should be called after setting up the OTel meter provider. If not called,
// the default global meter provider is used.
func InitMeter(serviceName string) error {
	meter = otel.Meter(
		"github.com/lookatitude/beluga-kernel/o11y",
		metric.WithInstrumentationAttributes(
			attribute.String("service.name", serviceName),
		),
	)
	// Reset so instruments are re-created with the new meter.
	meterOnce = sync.Once{}
	meterErr = nil
	return initInstruments()
}

// RecordExecution records one finished agent execution: a count tagged with
// the agent id and outcome, and a duration sample in milliseconds.
func RecordExecution(ctx context.Context, agentID string, d time.Duration, success bool) {
	if err := initInstruments(); err != nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("agent.id", agentID),
		attribute.String("outcome", outcome),
	)
	executionCounter.Add(ctx, 1, attrs)
	executionDuration.Record(ctx, float64(d)/float64(time.Millisecond), attrs)
}

// RecordRetries records the retries consumed by one execution.
func RecordRetries(ctx context.Context, agentID string, retries int) {
	if retries <= 0 {
		return
	}
	if err := initInstruments(); err != nil {
		return
	}
	retryCounter.Add(ctx, int64(retries),
		metric.WithAttributes(attribute.String("agent.id", agentID)),
	)
}

// RecordMessage records one message accepted by the bus.
func RecordMessage(ctx context.Context, from, msgType string) {
	if err := initInstruments(); err != nil {
		return
	}
	messageCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("message.from", from),
			attribute.String("message.type", msgType),
		),
	)
}

// Counter records an increment to a named counter metric.
func Counter(ctx context.Context, name string, value int64) {
	c, err := meter.Int64Counter(name)
	if err != nil {
		return
	}
	c.Add(ctx, value)
}

// Histogram records a value to a named histogram metric.
func Histogram(ctx context.Context, name string, value float64) {
	h, err := meter.Float64Histogram(name)
	if err != nil {
		return
	}
	h.Record(ctx, value)
}
