package middleware

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-reactor/internal/domain"
)

// tracerName identifies this instrumentation library in trace
// backends.
const tracerName = "github.com/ahrav/go-reactor/infrastructure/middleware"

// TracingObserver implements the ExecutionObserver interface using
// OpenTelemetry. Each wave becomes a span carrying its tag and the
// number of reactions fired; individual reactions become span events
// so the per-tag execution order is visible in a trace viewer.
type TracingObserver struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[domain.LogicalTag]trace.Span
}

// NewTracingObserver creates a tracing observer using the globally
// registered tracer provider.
func NewTracingObserver() *TracingObserver {
	return &TracingObserver{
		tracer: otel.Tracer(tracerName),
		spans:  make(map[domain.LogicalTag]trace.Span),
	}
}

// WaveStarted implements ExecutionObserver by opening a span for the
// wave.
func (t *TracingObserver) WaveStarted(tag domain.LogicalTag, pending int) {
	_, span := t.tracer.Start(context.Background(), "reactor.wave",
		trace.WithAttributes(
			attribute.String("reactor.tag", tag.String()),
			attribute.Int("reactor.tag.microstep", int(tag.Microstep)),
			attribute.Int("reactor.wave.pending", pending),
		))
	t.mu.Lock()
	t.spans[tag] = span
	t.mu.Unlock()
}

// WaveCompleted implements ExecutionObserver by closing the wave's
// span.
func (t *TracingObserver) WaveCompleted(tag domain.LogicalTag, fired int, elapsed time.Duration) {
	t.mu.Lock()
	span, ok := t.spans[tag]
	delete(t.spans, tag)
	t.mu.Unlock()
	if !ok {
		return
	}
	span.SetAttributes(
		attribute.Int("reactor.wave.fired", fired),
		attribute.Int64("reactor.wave.duration_us", elapsed.Microseconds()),
	)
	span.SetStatus(codes.Ok, "")
	span.End()
}

// ReactionFired implements ExecutionObserver by attaching the reaction
// as an event on the wave's span.
func (t *TracingObserver) ReactionFired(id domain.GlobalReactionID, tag domain.LogicalTag) {
	t.mu.Lock()
	span, ok := t.spans[tag]
	t.mu.Unlock()
	if !ok {
		return
	}
	span.AddEvent("reaction", trace.WithAttributes(
		attribute.String("reactor.reaction", id.String()),
	))
}

// QueueDepth implements ExecutionObserver. Queue depth is a metrics
// concern; the tracer ignores it.
func (t *TracingObserver) QueueDepth(int) {}
