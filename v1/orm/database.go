package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxIdleConnections is how many released connections a Database
// keeps, with their statement caches, for reuse.
const DefaultMaxIdleConnections = 8

// Database hands out Connections backed by a *sql.DB.
//
// Each checked-out Connection pins one session of the underlying pool, so
// transactions and prepared statements stay on it. Released connections are
// kept idle with their statement caches so statements are prepared at most
// once per session. Options.MaxConnections bounds the number of connections
// checked out at the same time.
//
// Database is safe for concurrent use; the Connections it returns are not.
type Database struct {
	db      *sql.DB
	opts    Options
	sem     *semaphore.Weighted
	maxIdle int

	mu     sync.Mutex
	idle   []*Connection
	closed bool
}

// NewDatabase wraps db. The caller keeps ownership of db; Close releases the
// connections held by the Database but does not close db.
func NewDatabase(db *sql.DB, opts Options) *Database {
	d := &Database{db: db, opts: opts, maxIdle: DefaultMaxIdleConnections}
	if d.opts.Dialect == nil {
		d.opts.Dialect = QuestionDialect{}
	}
	if opts.MaxConnections > 0 {
		d.sem = semaphore.NewWeighted(opts.MaxConnections)
		if int(opts.MaxConnections) < d.maxIdle {
			d.maxIdle = int(opts.MaxConnections)
		}
	}
	return d
}

// DB returns the underlying pool.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Dialect returns the dialect connections are created with.
func (d *Database) Dialect() Dialect {
	return d.opts.Dialect
}

// Acquire checks out a connection, reusing an idle one when possible. It
// blocks while MaxConnections connections are checked out.
func (d *Database) Acquire(ctx context.Context) (*Connection, error) {
	if d.sem != nil {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("waiting for a connection: %w", err)
		}
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.releaseSlot()
		return nil, ErrConnectionClosed
	}
	if n := len(d.idle); n > 0 {
		c := d.idle[n-1]
		d.idle = d.idle[:n-1]
		d.mu.Unlock()
		return c, nil
	}
	d.mu.Unlock()

	conn, err := d.db.Conn(ctx)
	if err != nil {
		d.releaseSlot()
		if d.opts.Logger != nil {
			d.opts.Logger.Error("failed to acquire database connection", err, nil)
		}
		return nil, newDatabaseError(d.opts.Dialect, "acquire", err)
	}
	return NewConnection(NewSQLConnection(conn), d.opts), nil
}

// Release returns c to the Database. Pending results are freed. A
// connection that still has an active transaction, or that was closed, is
// discarded instead of kept idle.
func (d *Database) Release(c *Connection) {
	if c == nil {
		return
	}
	defer d.releaseSlot()

	keep := !c.closed && c.tx == nil && c.Clear() == nil

	d.mu.Lock()
	if keep && !d.closed && len(d.idle) < d.maxIdle {
		d.idle = append(d.idle, c)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	if err := c.Close(); err != nil && d.opts.Logger != nil {
		d.opts.Logger.Warn("failed to close released connection", err, nil)
	}
}

func (d *Database) releaseSlot() {
	if d.sem != nil {
		d.sem.Release(1)
	}
}

// Begin starts a transaction on a newly acquired connection.
func (d *Database) Begin(ctx context.Context) (*Transaction, error) {
	tx := NewTransaction(d)
	if err := tx.Start(ctx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Transaction runs fn inside a transaction. The context passed to fn carries
// the transaction (see CurrentTransaction). The transaction commits when fn
// returns nil and rolls back otherwise, including when fn panics.
//
// Example:
//
//	err := db.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
//	    stmts, err := orm.FindObject[Person](tx.Connection().Cache())
//	    if err != nil {
//	        return err
//	    }
//	    return stmts.Persist(ctx)
//	})
func (d *Database) Transaction(ctx context.Context, fn func(ctx context.Context, tx *Transaction) error) (err error) {
	tx, err := d.Begin(ctx)
	if err != nil {
		return err
	}

	rollback := func() error {
		if err := tx.Rollback(ctx); err != nil {
			tx.abandon()
			return err
		}
		return nil
	}

	defer func() {
		if p := recover(); p != nil {
			_ = rollback()
			panic(p)
		}
	}()

	txCtx, err := WithTransaction(ctx, tx)
	if err != nil {
		return errors.Join(err, rollback())
	}

	if err := fn(txCtx, tx); err != nil {
		return errors.Join(err, rollback())
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(err, rollback())
	}
	return nil
}

// Ping checks the underlying pool.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return newDatabaseError(d.opts.Dialect, "ping", err)
	}
	return nil
}

// Idle returns the number of idle connections.
func (d *Database) Idle() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.idle)
}

// Close closes the idle connections and refuses further acquisitions.
// Connections still checked out are closed when released.
func (d *Database) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	idle := d.idle
	d.idle = nil
	d.mu.Unlock()

	var errs []error
	for _, c := range idle {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
