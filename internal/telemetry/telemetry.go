// Package telemetry defines the logging, metrics, and tracing seams used
// throughout the engine. Production wiring delegates to goa.design/clue
// for logging and OpenTelemetry for metrics/tracing (see clue.go); tests
// and CLI dry-runs use the no-op implementation (see noop.go).
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type (
	// Logger emits structured, context-scoped log messages.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records counters, timers, and gauges.
	Metrics interface {
		IncCounter(name string, value float64, tags ...string)
		RecordTimer(name string, duration time.Duration, tags ...string)
		RecordGauge(name string, value float64, tags ...string)
	}

	// Tracer creates and retrieves spans.
	Tracer interface {
		Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	}

	// Span is a single unit of traced work.
	Span interface {
		End(opts ...trace.SpanEndOption)
		AddEvent(name string, attrs ...any)
		SetStatus(code codes.Code, description string)
		RecordError(err error, opts ...trace.EventOption)
	}

	// Telemetry bundles the three seams so components only need to thread
	// one value through their constructors.
	Telemetry struct {
		Logger  Logger
		Metrics Metrics
		Tracer  Tracer
	}
)

// Noop returns a Telemetry whose components discard everything. Used by
// default in tests and in `nexous run --dry-run`.
func Noop() Telemetry {
	return Telemetry{Logger: NewNoopLogger(), Metrics: NewNoopMetrics(), Tracer: NewNoopTracer()}
}
