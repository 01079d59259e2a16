package tracer

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	traceSpan "go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/odm/v1/observability"
)

// tracerName is the instrumentation scope of every span this package opens.
const tracerName = "github.com/Aleph-Alpha/odm"

// RecordErrorOnSpan records err on span and marks the span as failed.
func (t *Tracer) RecordErrorOnSpan(span traceSpan.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// StartSpan starts a span named name as a child of the span in ctx, if any.
// The caller must End the returned span.
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, traceSpan.Span) {
	return t.tracer.Tracer(tracerName).Start(ctx, name)
}

// SetAttributes converts attrs to span attributes. Values of unsupported
// types are recorded with their fmt representation.
func (t *Tracer) SetAttributes(span traceSpan.Span, attrs map[string]interface{}) {
	if len(attrs) == 0 {
		return
	}

	attributes := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			attributes = append(attributes, attribute.String(k, val))
		case int:
			attributes = append(attributes, attribute.Int(k, val))
		case int64:
			attributes = append(attributes, attribute.Int64(k, val))
		case float64:
			attributes = append(attributes, attribute.Float64(k, val))
		case bool:
			attributes = append(attributes, attribute.Bool(k, val))
		default:
			attributes = append(attributes, attribute.String(k, fmt.Sprint(val)))
		}
	}
	span.SetAttributes(attributes...)
}

// GetCarrier injects the trace context of ctx into a string map.
func (t *Tracer) GetCarrier(ctx context.Context) map[string]string {
	propagator := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	carrier := propagation.MapCarrier{}
	propagator.Inject(ctx, carrier)
	return carrier
}

// SetCarrierOnContext extracts a trace context injected by GetCarrier.
func (t *Tracer) SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context {
	propagator := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	return propagator.Extract(ctx, propagation.MapCarrier(carrier))
}

// ObserveOperation turns a completed operation into a span that ends now and
// started Duration ago, so Tracer can serve as the observability.Observer of
// the orm runtime.
func (t *Tracer) ObserveOperation(op observability.OperationContext) {
	end := time.Now()
	_, span := t.tracer.Tracer(tracerName).Start(context.Background(), op.Component+"."+op.Operation,
		traceSpan.WithTimestamp(end.Add(-op.Duration)),
		traceSpan.WithSpanKind(traceSpan.SpanKindClient),
	)
	attrs := map[string]interface{}{
		"db.operation": op.Operation,
		"db.statement": op.Resource,
		"db.rows":      op.Size,
	}
	if op.SubResource != "" {
		attrs["db.sub_resource"] = op.SubResource
	}
	t.SetAttributes(span, attrs)
	if op.Error != nil {
		t.RecordErrorOnSpan(span, op.Error)
	}
	span.End(traceSpan.WithTimestamp(end))
}
