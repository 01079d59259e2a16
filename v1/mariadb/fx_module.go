package mariadb

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/odm/v1/observability"
)

// FXModule provides *MariaDB and runs the connection monitor between start
// and stop.
//
// Usage:
//
//	app := fx.New(
//	    fx.Supply(mariadb.Config{...}),
//	    logger.FXModule,
//	    mariadb.FXModule,
//	)
var FXModule = fx.Module("mariadb",
	fx.Provide(
		NewMariaDBClientWithDI,
	),
	fx.Invoke(RegisterMariaDBLifecycle),
)

// MariaDBParams are the dependencies of NewMariaDBClientWithDI. Logger,
// Observer and Reporter are optional.
type MariaDBParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Reporter PoolReporter           `optional:"true"`
}

// NewMariaDBClientWithDI builds a MariaDB from injected dependencies.
func NewMariaDBClientWithDI(params MariaDBParams) (*MariaDB, error) {
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
	return NewMariaDB(params.Config, opts...)
}

// MariaDBLifeCycleParams are the dependencies of RegisterMariaDBLifecycle.
type MariaDBLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	MariaDB   *MariaDB
}

// RegisterMariaDBLifecycle starts MonitorConnection and RetryConnection on
// start. On stop it signals both loops, waits for them and closes the pools.
func RegisterMariaDBLifecycle(params MariaDBLifeCycleParams) {
	wg := &sync.WaitGroup{}
	loopCtx, cancel := context.WithCancel(context.Background())
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				params.MariaDB.MonitorConnection(loopCtx)
			}()
			go func() {
				defer wg.Done()
				params.MariaDB.RetryConnection(loopCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := params.MariaDB.GracefulShutdown()
			cancel()
			wg.Wait()
			return err
		},
	})
}
