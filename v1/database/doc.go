// Package database selects the SQL backend of the orm runtime and runs units
// of work against it.
//
// Config picks PostgreSQL (package postgres) or MariaDB/MySQL (package
// mariadb). NewBackend connects it and Client wraps the result with:
//
//   - Transaction, which joins the transaction already carried by the
//     context, reruns transactions that failed with a retryable error
//     (deadlock, serialization failure, lost connection), and opens a
//     "database.transaction" span when a tracer is configured
//   - Persist, Load, Update, Erase, Query and QueryView, typed helpers that
//     run one object operation in a transaction
//   - Migrate, which applies schema statements through the backend
//
// # Basic Usage
//
//	backend, err := database.NewBackend(database.MariaDBConfig(mariadb.Config{
//	    Connection: mariadb.Connection{Host: "localhost", Port: "3306", DbName: "shop"},
//	}), database.Dependencies{Logger: log})
//	if err != nil {
//	    return err
//	}
//	db := database.NewClient(backend, database.WithTracer(tr))
//	defer db.Close()
//
//	err = database.Persist[Person](ctx, db, func(img *orm.Image) error {
//	    if err := img.Set(0, int64(1)); err != nil {
//	        return err
//	    }
//	    return img.Set(1, "Ada")
//	})
//
//	found, err := database.Load[Person](ctx, db, []any{int64(1)}, func(img *orm.Image) error {
//	    name, err := img.String(1)
//	    fmt.Println(name)
//	    return err
//	})
//
// # Dependency Injection
//
// FXModule provides Backend and *Client from a Config. When the container
// also holds metrics.MetricsCollector or *tracer.Tracer, every statement
// execution and transaction directive is reported to both, and the
// backend's pool state is exported as a gauge. The metrics and tracer
// modules log through their own Logger interfaces, which *logger.Logger
// satisfies.
//
//	app := fx.New(
//	    fx.Supply(logCfg, metricsCfg, tracerCfg),
//	    fx.Provide(
//	        func(l *logger.Logger) metrics.Logger { return l },
//	        func(l *logger.Logger) tracer.Logger { return l },
//	    ),
//	    logger.FXModule,
//	    metrics.FXModule,
//	    tracer.FXModule,
//	    database.FXModule,
//	    fx.Provide(func() database.Config {
//	        return database.PostgresConfig(postgres.Config{...})
//	    }),
//	)
package database
