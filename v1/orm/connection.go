package orm

import (
	"context"
	"errors"
	"time"

	"github.com/Aleph-Alpha/odm/v1/observability"
)

// Options configures connections and pools. Every field is optional.
type Options struct {
	// Dialect classifies native errors and renders placeholders.
	// QuestionDialect is used when nil.
	Dialect Dialect

	// Logger receives statement and transaction events. Nothing is logged
	// when nil.
	Logger Logger

	// Observer receives a report for every statement execution and
	// transaction directive.
	Observer observability.Observer

	// MaxConnections bounds the number of connections a Database hands out
	// at the same time. Zero means unbounded.
	MaxConnections int64
}

// Connection is one native session together with everything cached on it:
// the statement cache, the select statement holding the pending result and
// the current transaction.
//
// A Connection must be used by one goroutine at a time. Nothing inside it
// locks.
type Connection struct {
	native   NativeConnection
	dialect  Dialect
	logger   Logger
	observer observability.Observer

	cache  *StatementCache
	active *SelectStatement
	tx     *Transaction
	closed bool
}

// NewConnection wraps a native session.
func NewConnection(native NativeConnection, opts Options) *Connection {
	c := &Connection{
		native:   native,
		dialect:  opts.Dialect,
		logger:   opts.Logger,
		observer: opts.Observer,
	}
	if c.dialect == nil {
		c.dialect = QuestionDialect{}
	}
	c.cache = newStatementCache(c)
	return c
}

// Native returns the wrapped native session.
func (c *Connection) Native() NativeConnection {
	return c.native
}

// Dialect returns the dialect statements on this connection use.
func (c *Connection) Dialect() Dialect {
	return c.dialect
}

// Cache returns the statement cache of this connection.
func (c *Connection) Cache() *StatementCache {
	return c.cache
}

// Transaction returns the active transaction on this connection, or nil.
func (c *Connection) Transaction() *Transaction {
	return c.tx
}

// Clear frees the pending result of whichever select statement holds one.
// Cursors do not survive a transaction boundary, so transactions clear the
// connection before committing or rolling back.
func (c *Connection) Clear() error {
	if c.active == nil {
		return nil
	}
	return c.active.FreeResult()
}

// claim frees the pending result of any other select statement so that s can
// execute.
func (c *Connection) claim(s *SelectStatement) error {
	if c.active == nil || c.active == s {
		return nil
	}
	return c.Clear()
}

func (c *Connection) clearActive(s *SelectStatement) {
	if c.active == s {
		c.active = nil
	}
}

// Exec runs a directive without preparing it. Failures are returned as
// *DatabaseError.
func (c *Connection) Exec(ctx context.Context, text string) error {
	return c.exec(ctx, "exec", text)
}

func (c *Connection) exec(ctx context.Context, op, text string) error {
	if c.closed {
		return ErrConnectionClosed
	}
	start := time.Now()
	err := c.native.Exec(ctx, text)
	if err != nil {
		err = newDatabaseError(c.dialect, op, err)
	}
	c.observeOperation(op, text, time.Since(start), err, 0, nil)
	return err
}

// Ping checks the native session.
func (c *Connection) Ping(ctx context.Context) error {
	if c.closed {
		return ErrConnectionClosed
	}
	if err := c.native.Ping(ctx); err != nil {
		return newDatabaseError(c.dialect, "ping", err)
	}
	return nil
}

// Close releases every cached statement and then the native session. It is
// safe to call more than once.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.active = nil

	err := c.cache.close()
	if nerr := c.native.Close(); nerr != nil {
		err = errors.Join(err, newDatabaseError(c.dialect, "close", nerr))
	}
	return err
}

// Closed reports whether Close was called.
func (c *Connection) Closed() bool {
	return c.closed
}
