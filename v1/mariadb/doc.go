// Package mariadb is the MariaDB/MySQL backend of the orm runtime.
//
// It opens the server through gorm and github.com/go-sql-driver/mysql and
// hands the resulting *sql.DB to an orm.Database with the MariaDB Dialect,
// which uses "?" placeholders and classifies server errors:
//
//   - 1062 (ER_DUP_ENTRY) becomes orm.ErrDuplicateKey
//   - 1213 (deadlock), 1205 (lock wait timeout) and a lost connection are
//     retryable (orm.IsRetryable)
//
// The DSN always sets clientFoundRows so UPDATE reports matched rows.
//
// MonitorConnection pings the server periodically; RetryConnection reopens
// it after a failed ping and swaps the new pool in. FXModule runs both loops
// for the application's lifetime and provides *MariaDB.
//
// Example:
//
//	db, err := mariadb.NewMariaDB(cfg, mariadb.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer db.GracefulShutdown()
//
//	if err := db.Migrate(ctx, personSchema...); err != nil {
//	    return err
//	}
//	err = db.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
//	    stmts, err := orm.FindObject[Person](tx.Connection().Cache())
//	    if err != nil {
//	        return err
//	    }
//	    return stmts.Persist(ctx)
//	})
package mariadb
