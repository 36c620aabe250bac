package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Outcome labels for LLM calls
const (
	OutcomeOK          = "ok"
	OutcomeNoKey       = "no_credential"
	OutcomeError       = "provider_error"
	OutcomeCircuitOpen = "circuit_open"
)

// Metrics are the domain instruments recorded by the services
type Metrics struct {
	llmCalls        metric.Int64Counter
	llmLatency      metric.Float64Histogram
	badResponses    metric.Int64Counter
	threatsDetected metric.Int64Counter
	alertsSent      metric.Int64Counter
	breakerState    metric.Int64Counter
}

// NewMetrics registers the instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.llmCalls, err = meter.Int64Counter("aura_llm_calls_total",
		metric.WithDescription("LLM calls by operation and outcome")); err != nil {
		return nil, err
	}
	if m.llmLatency, err = meter.Float64Histogram("aura_llm_latency_seconds",
		metric.WithDescription("LLM call latency"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.badResponses, err = meter.Int64Counter("aura_llm_bad_responses_total",
		metric.WithDescription("LLM replies that needed defaults when decoded")); err != nil {
		return nil, err
	}
	if m.threatsDetected, err = meter.Int64Counter("aura_threats_detected_total",
		metric.WithDescription("Persisted threats by type and severity")); err != nil {
		return nil, err
	}
	if m.alertsSent, err = meter.Int64Counter("aura_alert_notifications_total",
		metric.WithDescription("Emergency contact notifications published")); err != nil {
		return nil, err
	}
	if m.breakerState, err = meter.Int64Counter("aura_circuit_transitions_total",
		metric.WithDescription("Circuit breaker state transitions")); err != nil {
		return nil, err
	}
	return m, nil
}

// NopMetrics records nothing. Used in tests.
func NopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("nop"))
	return m
}

// LLMCall records one LLM invocation
func (m *Metrics) LLMCall(ctx context.Context, operation, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	m.llmCalls.Add(ctx, 1, attrs)
	if elapsed > 0 {
		m.llmLatency.Record(ctx, elapsed.Seconds(), attrs)
	}
}

// BadResponse records a reply that could not be decoded as asked
func (m *Metrics) BadResponse(ctx context.Context, operation string) {
	m.badResponses.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// ThreatDetected records a persisted threat
func (m *Metrics) ThreatDetected(ctx context.Context, threatType, severity string) {
	m.threatsDetected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", threatType),
		attribute.String("severity", severity),
	))
}

// AlertsSent records n published contact notifications
func (m *Metrics) AlertsSent(ctx context.Context, n int) {
	m.alertsSent.Add(ctx, int64(n))
}

// CircuitTransition records a breaker state change
func (m *Metrics) CircuitTransition(name, state string) {
	m.breakerState.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("breaker", name),
		attribute.String("state", state),
	))
}
