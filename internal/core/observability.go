package core

import (
	"context"
	"time"
)

// MetricsRecorder receives one observation per service operation. Recorders
// must be safe for concurrent use.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts a span per service operation. The returned context propagates
// to the store and rules so a backend can correlate nested work.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan ends a traced operation. A nil error marks success.
type TraceSpan interface {
	End(err error)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}
