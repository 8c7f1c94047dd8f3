package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName is the tracer name used by the helpers below.
const instrumentationName = "docflow"

// AuditOperation names an operation against the audit trail.
type AuditOperation string

const (
	// AuditOperationList reads the newest entries for display.
	AuditOperationList AuditOperation = "list"
	// AuditOperationExport renders the trail as CSV or JSON.
	AuditOperationExport AuditOperation = "export"
	// AuditOperationVerify recomputes the hash chain.
	AuditOperationVerify AuditOperation = "verify"
)

// Attribute keys shared by workflow and audit spans.
const (
	AttrWorkflowOperation = attribute.Key("workflow.operation")
	AttrWorkflowFrom      = attribute.Key("workflow.from")
	AttrWorkflowTarget    = attribute.Key("workflow.target")
	AttrWorkflowAccepted  = attribute.Key("workflow.accepted")
	AttrAuditOperation    = attribute.Key("audit.operation")
	AttrAuditEntries      = attribute.Key("audit.entries")
)

// StartAuditSpan creates a span for an audit trail operation.
//
//	ctx, endSpan := tracing.StartAuditSpan(ctx, tracing.AuditOperationVerify)
//	defer func() { endSpan(err) }()
func StartAuditSpan(ctx context.Context, operation AuditOperation) (context.Context, func(error)) {
	tracer := otel.Tracer(instrumentationName + "/audit")

	ctx, span := tracer.Start(ctx, "audit."+string(operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrAuditOperation.String(string(operation))),
	)

	return ctx, endFunc(span)
}

// StartSpan creates a span for a general operation.
// Returns the new context and a function to end the span.
//
//	ctx, endSpan := tracing.StartSpan(ctx, "workflow.request_transition")
//	defer endSpan(nil)
func StartSpan(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name)
	return ctx, endFunc(span)
}

func endFunc(span trace.Span) func(error) {
	return func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attrs...)
}
