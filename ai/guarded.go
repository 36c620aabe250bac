package ai

import (
	"context"
	"errors"
	"time"

	"aura/backend/pkg/logger"
	"aura/backend/pkg/resilience"
	"aura/backend/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// GuardOptions configures Guarded
type GuardOptions struct {
	Timeout   time.Duration
	MaxTokens int
	Breaker   *resilience.CircuitBreaker
	Tracer    trace.Tracer
	Metrics   *observability.Metrics
}

// Guarded decorates a Provider with a per-call timeout, a circuit breaker,
// a span per call and call metrics.
type Guarded struct {
	next Provider
	opts GuardOptions
}

// NewGuarded wraps next
func NewGuarded(next Provider, opts GuardOptions) *Guarded {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Breaker == nil {
		opts.Breaker = resilience.NewCircuitBreaker(resilience.DefaultConfig("llm-"+next.Name()), nil)
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("ai")
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NopMetrics()
	}
	return &Guarded{next: next, opts: opts}
}

// Name implements Provider
func (g *Guarded) Name() string { return g.next.Name() }

// Close closes the wrapped provider when it holds resources
func (g *Guarded) Close() error {
	if closer, ok := g.next.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Complete implements Provider
func (g *Guarded) Complete(ctx context.Context, req Request) (string, error) {
	if req.MaxTokens == 0 {
		req.MaxTokens = g.opts.MaxTokens
	}

	ctx, span := g.opts.Tracer.Start(ctx, "llm."+req.Operation, trace.WithAttributes(
		attribute.String("llm.provider", g.next.Name()),
		attribute.Int("llm.messages", len(req.Messages)),
		attribute.Bool("llm.json", req.JSON),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	start := time.Now()
	var reply string
	err := g.opts.Breaker.Execute(ctx, func(ctx context.Context) error {
		var callErr error
		reply, callErr = g.next.Complete(ctx, req)
		return callErr
	})
	elapsed := time.Since(start)

	outcome := observability.OutcomeOK
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		outcome = observability.OutcomeCircuitOpen
	case err != nil:
		outcome = observability.OutcomeError
	}
	g.opts.Metrics.LLMCall(ctx, req.Operation, outcome, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		logger.FromContext(ctx).Warn("LLM call failed",
			"provider", g.next.Name(),
			"operation", req.Operation,
			"outcome", outcome,
			"latency_ms", elapsed.Milliseconds(),
			"error", err.Error(),
		)
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.reply_chars", len(reply)))
	return reply, nil
}
