package database

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/odm/v1/logger"
	"github.com/Aleph-Alpha/odm/v1/metrics"
	"github.com/Aleph-Alpha/odm/v1/observability"
	"github.com/Aleph-Alpha/odm/v1/tracer"
)

// FXModule provides *Client and Backend for the backend selected by Config.
// When metrics.MetricsCollector or *tracer.Tracer are in the container, every
// orm operation is reported to them and the tracer spans transactions.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    tracer.FXModule,
//	    database.FXModule,
//	    fx.Provide(func() database.Config {
//	        return database.PostgresConfig(postgres.Config{...})
//	    }),
//	    fx.Invoke(func(db *database.Client) {
//	        // ...
//	    }),
//	)
var FXModule = fx.Module("database",
	fx.Provide(
		NewBackendWithDI,
		NewClientWithDI,
	),
	fx.Invoke(RegisterDatabaseLifecycle),
)

// DatabaseParams are the dependencies of NewBackendWithDI.
type DatabaseParams struct {
	fx.In

	Config  Config
	Logger  *logger.Logger           `optional:"true"`
	Metrics metrics.MetricsCollector `optional:"true"`
	Tracer  *tracer.Tracer           `optional:"true"`
}

// NewBackendWithDI connects the configured backend. Metrics and tracer,
// when present, both observe the orm runtime.
func NewBackendWithDI(params DatabaseParams) (Backend, error) {
	var deps Dependencies
	if params.Logger != nil {
		deps.Logger = params.Logger
	}

	var observers []observability.Observer
	if params.Metrics != nil {
		observers = append(observers, params.Metrics)
		deps.Reporter = params.Metrics
	}
	if params.Tracer != nil {
		observers = append(observers, params.Tracer)
	}
	switch len(observers) {
	case 0:
	case 1:
		deps.Observer = observers[0]
	default:
		deps.Observer = observability.Multi(observers...)
	}

	return NewBackend(params.Config, deps)
}

// ClientParams are the dependencies of NewClientWithDI.
type ClientParams struct {
	fx.In

	Config  Config
	Backend Backend
	Logger  *logger.Logger `optional:"true"`
	Tracer  *tracer.Tracer `optional:"true"`
}

// NewClientWithDI wraps the injected backend.
func NewClientWithDI(params ClientParams) *Client {
	opts := []Option{WithTransactionRetries(params.Config.retries())}
	if params.Logger != nil {
		opts = append(opts, WithLogger(params.Logger))
	}
	if params.Tracer != nil {
		opts = append(opts, WithTracer(params.Tracer))
	}
	return NewClient(params.Backend, opts...)
}

// monitored backends keep their connection alive between start and stop.
type monitored interface {
	MonitorConnection(ctx context.Context)
	RetryConnection(ctx context.Context)
}

// DatabaseLifecycleParams are the dependencies of RegisterDatabaseLifecycle.
type DatabaseLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Backend   Backend
}

// RegisterDatabaseLifecycle runs the backend's connection monitor from
// start to stop and shuts the backend down on stop.
func RegisterDatabaseLifecycle(params DatabaseLifecycleParams) {
	wg := &sync.WaitGroup{}
	loopCtx, cancel := context.WithCancel(context.Background())
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			m, ok := params.Backend.(monitored)
			if !ok {
				return nil
			}
			wg.Add(2)
			go func() {
				defer wg.Done()
				m.MonitorConnection(loopCtx)
			}()
			go func() {
				defer wg.Done()
				m.RetryConnection(loopCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := params.Backend.GracefulShutdown()
			cancel()
			wg.Wait()
			return err
		},
	})
}
