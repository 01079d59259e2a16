package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Logger is the logging surface the tracer needs.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// Tracer wraps an OpenTelemetry TracerProvider. database.Client opens a
// span per transaction with it and, as an observability.Observer, it turns
// every orm operation into a span.
//
// Tracer is safe for concurrent use.
type Tracer struct {
	tracer *trace.TracerProvider
	logger Logger
}

// NewClient creates the tracer provider and installs it, together with the
// W3C trace-context and baggage propagators, as the global provider. A
// failure to create the exporter is fatal.
//
// Example:
//
//	t := tracer.NewClient(tracer.Config{
//	    ServiceName:  "inventory",
//	    AppEnv:       "production",
//	    EnableExport: true,
//	}, log)
//	ctx, span := t.StartSpan(ctx, "orm.transaction")
//	defer span.End()
func NewClient(cfg Config, logger Logger) *Tracer {
	tp, err := newProvider(context.Background(), cfg)
	if err != nil {
		logger.Fatal("cannot initiate tracer", err, nil)
		return nil
	}
	logger.Info("tracer initialized", nil, map[string]interface{}{
		"service": cfg.ServiceName,
		"export":  cfg.EnableExport,
	})
	return newTracer(tp, logger)
}

func newProvider(ctx context.Context, cfg Config) (*trace.TracerProvider, error) {
	options := []trace.TracerProviderOption{
		trace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.AppEnv),
			attribute.String("environment", cfg.AppEnv),
		)),
	}

	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		options = append(options, trace.WithSampler(
			trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRatio)),
		))
	}

	if cfg.EnableExport {
		var clientOpts []otlptracehttp.Option
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		if cfg.Insecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(clientOpts...))
		if err != nil {
			return nil, err
		}
		options = append(options, trace.WithBatcher(exporter))
	}

	return trace.NewTracerProvider(options...), nil
}

func newTracer(tp *trace.TracerProvider, logger Logger) *Tracer {
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return &Tracer{tracer: tp, logger: logger}
}
