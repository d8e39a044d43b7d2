// Package telemetry defines the logging, metrics, and tracing interfaces
// used throughout the core and the durable scheduler. Concrete
// implementations are a no-op (tests, single-player local sessions) and a
// Clue/OpenTelemetry-backed one (hosted sessions).
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger captures structured logging used throughout the runtime.
// Implementations typically delegate to Clue but the interface is
// intentionally small so tests can provide lightweight stubs.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics exposes counter and histogram helpers for runtime instrumentation.
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation so runtime code can remain agnostic of the
// underlying OpenTelemetry provider.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span represents an in-flight tracing span.
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, attrs ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}

// TurnTelemetry captures observability metadata collected while resolving
// one turn. Common fields provide type safety for standard metrics; Extra
// holds planner- or tool-specific data (provider name, token usage, cache
// keys) that doesn't warrant its own field.
type TurnTelemetry struct {
	// DurationMs is the wall-clock time spent resolving the turn.
	DurationMs int64
	// TokensUsed tracks planner tokens consumed, when the planner reports it.
	TokensUsed int
	// Model identifies which planner model produced the plan (e.g. "claude-3.5-sonnet").
	Model string
	// Extra holds provider-specific metadata not captured by the fields above.
	Extra map[string]any
}
