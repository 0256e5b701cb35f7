package tracing

import (
	"context"
	"net/http"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const dispatchTracerName = "github.com/KasumiMercury/primind-tax-reminder/internal/service/dispatch"

func DispatchTracer() trace.Tracer {
	return otel.Tracer(dispatchTracerName)
}

func StartRunSpan(ctx context.Context, runID string, today civil.Date, simulated bool) (context.Context, trace.Span) {
	return DispatchTracer().Start(ctx, "dispatch.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.today", today.String()),
			attribute.Bool("run.simulated", simulated),
		),
	)
}

func StartSourceQuerySpan(ctx context.Context, date civil.Date) (context.Context, trace.Span) {
	return DispatchTracer().Start(ctx, "dispatch.source_query",
		trace.WithAttributes(
			attribute.String("query.due_date", date.String()),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func StartObligationSpan(ctx context.Context, obligationID string, daysUntilDue int) (context.Context, trace.Span) {
	return DispatchTracer().Start(ctx, "dispatch.obligation",
		trace.WithAttributes(
			attribute.String("obligation.id", obligationID),
			attribute.Int("obligation.days_until_due", daysUntilDue),
		),
	)
}

func StartDigestSpan(ctx context.Context, entryCount int) (context.Context, trace.Span) {
	return DispatchTracer().Start(ctx, "dispatch.admin_digest",
		trace.WithAttributes(
			attribute.Int("digest.entry_count", entryCount),
		),
	)
}

func StartExternalAPISpan(ctx context.Context, operation, url string) (context.Context, trace.Span) {
	return DispatchTracer().Start(ctx, "dispatch.external_api."+operation,
		trace.WithAttributes(
			attribute.String("url", url),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

func RecordRunResult(span trace.Span, total, sent, errs, sourceFailures int, err error) {
	span.SetAttributes(
		attribute.Int("run.total", total),
		attribute.Int("run.sent", sent),
		attribute.Int("run.errors", errs),
		attribute.Int("run.source_failures", sourceFailures),
	)
	RecordSpanError(span, err)
}

func RecordObligationResult(span trace.Span, classification string, attempts int) {
	span.SetAttributes(
		attribute.String("obligation.classification", classification),
		attribute.Int("obligation.attempts", attempts),
	)
	if classification == "error" {
		span.SetStatus(codes.Error, "obligation processing error")
		return
	}
	span.SetStatus(codes.Ok, "")
}

// InjectToHTTPRequest propagates the current trace context to an outbound request.
func InjectToHTTPRequest(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}
