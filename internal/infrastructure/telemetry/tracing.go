package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of spans started here
const TracerName = "github.com/carehours/backend"

// Span attribute keys shared by services
const (
	AttrTenantID     = attribute.Key("tenant.id")
	AttrDocumentKind = attribute.Key("document.kind")
	AttrOwnerID      = attribute.Key("document.owner_id")
	AttrJob          = attribute.Key("job.name")
	AttrBatchSize    = attribute.Key("batch.size")
)

// StartSpan starts an internal span named "<component>.<operation>".
//
//	ctx, span := telemetry.StartSpan(ctx, "document", "generate", telemetry.AttrDocumentKind.String(kind))
//	defer func() { telemetry.EndSpan(span, err) }()
func StartSpan(ctx context.Context, component, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, component+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndSpan records err on span, if any, and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// TraceID returns the hex trace ID in ctx, or "" without a valid span
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.TraceID().IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
