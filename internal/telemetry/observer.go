package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/BaSui01/capflow/llm/capability"
)

// RunObserver records capability runs and attempts as OTel instruments so
// they reach the OTLP collector alongside the spans.
type RunObserver struct {
	runs     metric.Int64Counter
	runTime  metric.Float64Histogram
	attempts metric.Int64Counter
	callTime metric.Float64Histogram
}

var _ capability.Observer = (*RunObserver)(nil)

// NewRunObserver creates the instruments on meter.
func NewRunObserver(meter metric.Meter) (*RunObserver, error) {
	o := &RunObserver{}
	var err error
	if o.runs, err = meter.Int64Counter("capflow.capability.runs",
		metric.WithDescription("Capability runs by outcome")); err != nil {
		return nil, fmt.Errorf("create runs counter: %w", err)
	}
	if o.runTime, err = meter.Float64Histogram("capflow.capability.run.duration",
		metric.WithDescription("Capability run duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create run duration histogram: %w", err)
	}
	if o.attempts, err = meter.Int64Counter("capflow.provider.attempts",
		metric.WithDescription("Provider attempts by outcome")); err != nil {
		return nil, fmt.Errorf("create attempts counter: %w", err)
	}
	if o.callTime, err = meter.Float64Histogram("capflow.provider.attempt.duration",
		metric.WithDescription("Provider attempt duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("create attempt duration histogram: %w", err)
	}
	return o, nil
}

// ObserveRun implements capability.Observer.
func (o *RunObserver) ObserveRun(capabilityName, outcome string, partial bool, duration time.Duration) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("capability", capabilityName),
		attribute.String("outcome", outcome),
		attribute.Bool("partial", partial),
	)
	o.runs.Add(ctx, 1, attrs)
	o.runTime.Record(ctx, duration.Seconds(), attrs)
}

// ObserveAttempt implements capability.Observer.
func (o *RunObserver) ObserveAttempt(capabilityName, provider, outcome string, duration time.Duration) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("capability", capabilityName),
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	)
	o.attempts.Add(ctx, 1, attrs)
	if outcome != string(capability.AttemptSkipped) {
		o.callTime.Record(ctx, duration.Seconds(), attrs)
	}
}
