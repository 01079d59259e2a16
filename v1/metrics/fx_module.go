package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.uber.org/fx"
)

// Logger is the logging surface the metrics server needs.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// FXModule provides *Metrics, exposes it as a MetricsCollector and runs the
// /metrics server for the lifetime of the application.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(metrics.Config{Address: ":9090", ServiceName: "inventory"}),
//	    logger.FXModule,
//	    metrics.FXModule,
//	)
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		func(m *Metrics) MetricsCollector { return m },
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// RegisterMetricsLifecycle binds the metrics server's listener on start, so
// a taken port fails the start, serves in the background and shuts the
// server down on stop.
func RegisterMetricsLifecycle(lc fx.Lifecycle, m *Metrics, log Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", m.Server.Addr)
			if err != nil {
				return err
			}
			log.Info("starting Prometheus metrics server", nil, map[string]interface{}{
				"address": ln.Addr().String(),
			})
			go func() {
				if err := m.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("prometheus metrics server failed", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down Prometheus metrics server", nil, nil)
			return m.Server.Shutdown(ctx)
		},
	})
}
