package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides the *Tracer and shuts its provider down when the
// application stops, flushing pending spans.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    database.FXModule,
//	)
//
// A tracer.Config and a Logger must be available in the container.
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle registers the OnStop hook that shuts the tracer
// provider down.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer == nil || tracer.tracer == nil {
				return nil
			}
			if tracer.logger != nil {
				tracer.logger.Info("shutting down tracer", nil, nil)
			}
			return tracer.tracer.Shutdown(ctx)
		},
	})
}
