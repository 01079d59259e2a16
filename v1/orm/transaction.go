package orm

import (
	"context"
	"fmt"
)

// TxState is the state of a Transaction.
type TxState int

const (
	TxNotStarted TxState = iota
	TxActive
	TxCommitted
	TxRolledBack
)

func (s TxState) String() string {
	switch s {
	case TxNotStarted:
		return "not_started"
	case TxActive:
		return "active"
	case TxCommitted:
		return "committed"
	case TxRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("TxState(%d)", int(s))
	}
}

// Directives issued on the connection.
const (
	beginDirective    = "BEGIN"
	commitDirective   = "COMMIT"
	rollbackDirective = "ROLLBACK"
)

// ConnectionPool hands out connections. Database implements it.
type ConnectionPool interface {
	Acquire(ctx context.Context) (*Connection, error)
	Release(c *Connection)
}

// Transaction is a database transaction bound to one connection for its
// whole life.
//
// States move NotStarted -> Active -> Committed or RolledBack. A failed
// Start leaves the transaction NotStarted; a failed Commit or Rollback leaves
// it Active so the caller can roll back.
type Transaction struct {
	pool     ConnectionPool
	conn     *Connection
	acquired bool
	state    TxState
}

// NewTransaction returns a transaction that acquires its connection from
// pool when started and releases it once finished.
func NewTransaction(pool ConnectionPool) *Transaction {
	return &Transaction{pool: pool}
}

// NewConnectionTransaction returns a transaction on a connection the caller
// already holds. The connection is not released when the transaction ends.
func NewConnectionTransaction(conn *Connection) *Transaction {
	return &Transaction{conn: conn}
}

// State returns the current state.
func (t *Transaction) State() TxState {
	return t.state
}

// Connection returns the connection the transaction runs on, or nil before
// a pooled transaction was started. After Commit or Rollback it still returns
// that connection even though a pooled one was handed back to the pool.
func (t *Transaction) Connection() *Connection {
	return t.conn
}

// Start acquires a connection if none is held and begins the transaction.
//
// Returns:
//   - ErrTransactionActive when this transaction or another one is already
//     active on the connection
//   - ErrTransactionFinalized after Commit or Rollback
//   - a *DatabaseError when the begin directive fails
func (t *Transaction) Start(ctx context.Context) error {
	switch t.state {
	case TxActive:
		return ErrTransactionActive
	case TxCommitted, TxRolledBack:
		return ErrTransactionFinalized
	}

	if t.conn == nil {
		if t.pool == nil {
			return ErrConnectionClosed
		}
		conn, err := t.pool.Acquire(ctx)
		if err != nil {
			return err
		}
		t.conn = conn
		t.acquired = true
	}

	if t.conn.tx != nil {
		t.unbind()
		return ErrTransactionActive
	}

	if err := t.conn.exec(ctx, "begin", beginDirective); err != nil {
		t.conn.logError("failed to begin transaction", err, nil)
		t.unbind()
		return err
	}

	t.conn.tx = t
	t.state = TxActive
	t.conn.logDebug("transaction started", nil)
	return nil
}

// Commit clears any pending result on the connection and commits.
func (t *Transaction) Commit(ctx context.Context) error {
	return t.finish(ctx, "commit", commitDirective, TxCommitted)
}

// Rollback clears any pending result on the connection and rolls back.
func (t *Transaction) Rollback(ctx context.Context) error {
	return t.finish(ctx, "rollback", rollbackDirective, TxRolledBack)
}

func (t *Transaction) finish(ctx context.Context, op, directive string, final TxState) error {
	if t.state != TxActive {
		return ErrTransactionFinalized
	}

	if err := t.conn.Clear(); err != nil {
		return err
	}
	if err := t.conn.exec(ctx, op, directive); err != nil {
		t.conn.logError("failed to "+op+" transaction", err, nil)
		return err
	}

	t.state = final
	t.conn.tx = nil
	t.conn.logDebug("transaction finished", map[string]interface{}{"state": final.String()})
	t.releaseAcquired()
	return nil
}

// abandon gives up on an active transaction whose rollback failed. The
// session is closed, which makes the server discard the transaction, and the
// connection is released without being reused.
func (t *Transaction) abandon() {
	if t.state != TxActive || t.conn == nil {
		return
	}
	t.conn.tx = nil
	_ = t.conn.Close()
	t.state = TxRolledBack
	t.releaseAcquired()
}

// releaseAcquired hands a pooled connection back. The reference is kept so
// Connection keeps reporting where the transaction ran.
func (t *Transaction) releaseAcquired() {
	if !t.acquired {
		return
	}
	t.pool.Release(t.conn)
	t.acquired = false
}

// unbind undoes the acquisition of a Start that did not begin.
func (t *Transaction) unbind() {
	if !t.acquired {
		return
	}
	t.releaseAcquired()
	t.conn = nil
}

type txKey struct{}

// WithTransaction returns a context carrying tx as the current transaction.
// Only one active transaction may be current in a context chain, so
// attaching a transaction below another active one fails with
// ErrTransactionActive.
func WithTransaction(ctx context.Context, tx *Transaction) (context.Context, error) {
	if cur, ok := ctx.Value(txKey{}).(*Transaction); ok && cur != tx && cur.state == TxActive {
		return ctx, ErrTransactionActive
	}
	return context.WithValue(ctx, txKey{}, tx), nil
}

// CurrentTransaction returns the active transaction carried by ctx, or
// ErrNoTransaction.
func CurrentTransaction(ctx context.Context) (*Transaction, error) {
	tx, ok := ctx.Value(txKey{}).(*Transaction)
	if !ok || tx.state != TxActive {
		return nil, ErrNoTransaction
	}
	return tx, nil
}
