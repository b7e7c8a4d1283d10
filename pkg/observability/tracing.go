package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name of the tracer for attend operations.
	TracerName = "attend"
)

// Span attribute keys
const (
	AttrSource       = "source"
	AttrSection      = "section"
	AttrRows         = "rows"
	AttrRecords      = "records"
	AttrSink         = "sink"
	AttrRunID        = "run_id"
	AttrThreshold    = "threshold_minutes"
	AttrMinFraction  = "min_fraction"
	AttrParticipants = "participants"
	AttrQualified    = "qualified"
	AttrErrorCode    = "error_code"
)

// Span names
const (
	SpanReadExport    = "attend.read_export"
	SpanDecodeSection = "attend.decode_section"
	SpanQualify       = "attend.qualify"
	SpanSinkWrite     = "attend.sink_write"
)

// Tracer provides tracing for attend operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider. Without a configured
// provider spans are no-ops.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(TracerName),
	}
}

// StartReadSpan starts a span for reading an export.
func (t *Tracer) StartReadSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanReadExport,
		trace.WithAttributes(
			attribute.String(AttrSource, source),
		),
	)
}

// StartDecodeSpan starts a span for decoding one section.
func (t *Tracer) StartDecodeSpan(ctx context.Context, section string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanDecodeSection,
		trace.WithAttributes(
			attribute.String(AttrSection, section),
		),
	)
}

// StartQualifySpan starts a span for a qualification evaluation.
func (t *Tracer) StartQualifySpan(ctx context.Context, minFraction float64) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanQualify,
		trace.WithAttributes(
			attribute.Float64(AttrMinFraction, minFraction),
		),
	)
}

// StartSinkSpan starts a span for writing a result.
func (t *Tracer) StartSinkSpan(ctx context.Context, sink, runID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanSinkWrite,
		trace.WithAttributes(
			attribute.String(AttrSink, sink),
			attribute.String(AttrRunID, runID),
		),
	)
}

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error, code string) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if code != "" {
			span.SetAttributes(attribute.String(AttrErrorCode, code))
		}
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
