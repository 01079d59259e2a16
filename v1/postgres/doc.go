// Package postgres is the PostgreSQL backend of the orm runtime.
//
// The server is opened through gorm with either github.com/jackc/pgx/v5
// (default) or github.com/lib/pq as database/sql driver. The resulting
// *sql.DB backs an orm.Database with the PostgreSQL Dialect: "$n"
// placeholders, SQLSTATE 23505 as orm.ErrDuplicateKey, and 40001, 40P01 and
// 57P01 as retryable.
//
// The pool is held in an atomic pointer. MonitorConnection pings it
// periodically and RetryConnection swaps in a freshly opened pool after a
// failure, so callers fetch Database() for every unit of work instead of
// keeping it.
//
// Example:
//
//	pg, err := postgres.NewPostgres(cfg, postgres.WithObserver(obs))
//	if err != nil {
//	    return err
//	}
//	defer pg.GracefulShutdown()
//
//	err = pg.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
//	    stmts, err := orm.FindObject[Person](tx.Connection().Cache())
//	    if err != nil {
//	        return err
//	    }
//	    if err := stmts.SetID(int64(42)); err != nil {
//	        return err
//	    }
//	    found, err := stmts.Find(ctx)
//	    if err != nil || !found {
//	        return err
//	    }
//	    return stmts.Erase(ctx)
//	})
package postgres
