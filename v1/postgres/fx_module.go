package postgres

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/odm/v1/observability"
)

// FXModule provides *Postgres and runs the connection monitor between start
// and stop.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(postgres.Config{...}),
//	    logger.FXModule,
//	    postgres.FXModule,
//	)
var FXModule = fx.Module("postgres",
	fx.Provide(
		NewPostgresClientWithDI,
	),
	fx.Invoke(RegisterPostgresLifecycle),
)

// PostgresParams are the dependencies of NewPostgresClientWithDI. Logger,
// Observer and Reporter are optional.
type PostgresParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Reporter PoolReporter           `optional:"true"`
}

// NewPostgresClientWithDI builds a Postgres from injected dependencies.
func NewPostgresClientWithDI(params PostgresParams) (*Postgres, error) {
	var opts []Option
	if params.Logger != nil {
		opts = append(opts, WithLogger(params.Logger))
	}
	if params.Observer != nil {
		opts = append(opts, WithObserver(params.Observer))
	}
	if params.Reporter != nil {
		opts = append(opts, WithPoolReporter(params.Reporter))
	}
	return NewPostgres(params.Config, opts...)
}

// PostgresLifeCycleParams are the dependencies of RegisterPostgresLifecycle.
type PostgresLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Postgres  *Postgres
}

// RegisterPostgresLifecycle starts MonitorConnection and RetryConnection on
// start. On stop it signals both loops, waits for them and closes the pools.
func RegisterPostgresLifecycle(params PostgresLifeCycleParams) {
	wg := &sync.WaitGroup{}
	loopCtx, cancel := context.WithCancel(context.Background())
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				params.Postgres.MonitorConnection(loopCtx)
			}()
			go func() {
				defer wg.Done()
				params.Postgres.RetryConnection(loopCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := params.Postgres.GracefulShutdown()
			cancel()
			wg.Wait()
			return err
		},
	})
}
