// Package tracer provides OpenTelemetry tracing for the database runtime.
//
// It wraps a TracerProvider behind a small API (StartSpan, RecordErrorOnSpan,
// SetAttributes) and can also act as an observability.Observer, turning each
// statement execution and transaction directive reported by the orm package
// into a client span.
//
// Basic usage:
//
//	t := tracer.NewClient(tracer.Config{ServiceName: "inventory"}, log)
//
//	ctx, span := t.StartSpan(ctx, "load-order")
//	defer span.End()
//	if err := load(ctx); err != nil {
//	    t.RecordErrorOnSpan(span, err)
//	}
//
// Propagating context across services:
//
//	headers := t.GetCarrier(ctx)
//	// ... on the receiving side
//	ctx = t.SetCarrierOnContext(ctx, headers)
//
// With fx, include tracer.FXModule; the provider is shut down on stop.
package tracer
