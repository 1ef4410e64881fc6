package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoop_ReturnsFullyWiredTelemetry(t *testing.T) {
	tel := Noop()
	require := assert.New(t)
	require.NotNil(tel.Logger)
	require.NotNil(tel.Metrics)
	require.NotNil(tel.Tracer)
}

func TestNoopLogger_NeverPanics(t *testing.T) {
	l := NewNoopLogger()
	ctx := context.Background()
	assert.NotPanics(t, func() {
		l.Debug(ctx, "debug", "k", "v")
		l.Info(ctx, "info")
		l.Warn(ctx, "warn", "k", 1)
		l.Error(ctx, "error")
	})
}

func TestNoopMetrics_NeverPanics(t *testing.T) {
	m := NewNoopMetrics()
	assert.NotPanics(t, func() {
		m.IncCounter("c", 1, "tag", "v")
		m.RecordTimer("t", time.Second)
		m.RecordGauge("g", 3.14)
	})
}

func TestNoopTracer_StartReturnsUsableSpan(t *testing.T) {
	tracer := NewNoopTracer()
	ctx, span := tracer.Start(context.Background(), "op")
	assert.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		span.AddEvent("event")
		span.SetStatus(0, "ok")
		span.RecordError(errors.New("boom"))
		span.End()
	})
}
