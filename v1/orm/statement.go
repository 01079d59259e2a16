package orm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var errNoPendingResult = errors.New("no pending result")

// statement owns one prepared native handle.
type statement struct {
	conn   *Connection
	native NativeStatement
	text   string
}

// newStatement opens and prepares a native handle. On failure the handle is
// closed again and a *PreparationError is returned.
func newStatement(ctx context.Context, conn *Connection, text string) (statement, error) {
	if conn.closed {
		return statement{}, ErrConnectionClosed
	}

	native, err := conn.native.NewStatement()
	if err != nil {
		conn.logError("failed to open statement", err, map[string]interface{}{"sql": text})
		return statement{}, &PreparationError{Text: text, Err: err}
	}

	if err := native.Prepare(ctx, text); err != nil {
		_ = native.Close()
		conn.logError("failed to prepare statement", err, map[string]interface{}{"sql": text})
		return statement{}, &PreparationError{Text: text, Err: err}
	}

	conn.logDebug("prepared statement", map[string]interface{}{"sql": text})
	return statement{conn: conn, native: native, text: text}, nil
}

// Text returns the SQL the statement was prepared with.
func (s *statement) Text() string {
	return s.text
}

// Close releases the native handle. Further calls are no-ops.
func (s *statement) Close() error {
	if s.native == nil {
		return nil
	}
	err := s.native.Close()
	s.native = nil
	if err != nil {
		return s.dbError("close", err)
	}
	return nil
}

func (s *statement) dbError(op string, err error) error {
	return newDatabaseError(s.conn.dialect, op, err)
}

func (s *statement) reset() error {
	if s.native == nil {
		return ErrConnectionClosed
	}
	if err := s.native.Reset(); err != nil {
		return s.dbError("reset", err)
	}
	return nil
}

func (s *statement) bindParams(b *Binding, applied *uint64) error {
	if b == nil || !b.NeedsRebind(*applied) {
		return nil
	}
	if err := s.native.BindParams(b.Bind); err != nil {
		return s.dbError("bind parameters", err)
	}
	*applied = b.Version
	return nil
}

func (s *statement) bindResults(b *Binding, applied *uint64) error {
	if b == nil || !b.NeedsRebind(*applied) {
		return nil
	}
	if err := s.native.BindResults(b.Bind); err != nil {
		return s.dbError("bind results", err)
	}
	*applied = b.Version
	return nil
}

// affectedRows maps the row count of an update or delete: a positive count
// is success, zero means the object no longer exists, and anything else is a
// native failure.
func (s *statement) affectedRows() (int64, error) {
	n, err := s.native.AffectedRows()
	if err != nil {
		return 0, s.dbError("affected rows", err)
	}
	if n < 0 {
		return 0, s.dbError("affected rows", fmt.Errorf("row count unavailable (%d)", n))
	}
	return n, nil
}

func (s *statement) observe(operation string, start time.Time, err error, rows int64) {
	s.conn.observeOperation(operation, s.text, time.Since(start), err, rows, nil)
}

// InsertStatement inserts one row from a data binding.
type InsertStatement struct {
	statement

	param        *Binding
	paramVersion uint64
}

// NewInsertStatement prepares text on conn. param supplies one descriptor per
// placeholder.
func NewInsertStatement(ctx context.Context, conn *Connection, text string, param *Binding) (*InsertStatement, error) {
	st, err := newStatement(ctx, conn, text)
	if err != nil {
		return nil, err
	}
	return &InsertStatement{statement: st, param: param}, nil
}

// Execute inserts the row currently held by the parameter buffers.
//
// Returns:
//   - nil on success
//   - an error matching ErrDuplicateKey when a uniqueness constraint is violated
//   - a *DatabaseError for every other native failure
func (s *InsertStatement) Execute(ctx context.Context) error {
	start := time.Now()
	err := s.execute(ctx)
	rows := int64(1)
	if err != nil {
		rows = 0
	}
	s.observe("insert", start, err, rows)
	return err
}

func (s *InsertStatement) execute(ctx context.Context) error {
	if err := s.reset(); err != nil {
		return err
	}
	if err := s.bindParams(s.param, &s.paramVersion); err != nil {
		return err
	}
	if err := s.native.Execute(ctx); err != nil {
		if s.conn.dialect.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
		}
		return s.dbError("execute", err)
	}
	return nil
}

// SelectStatement executes a query and fetches its rows into a result binding.
//
// Single row lookups use Execute. Multi-row iteration uses Start followed by
// Fetch until FetchNoData, or FreeResult to stop early. After FetchTruncated
// the caller grows the result buffers, resyncs the binding and calls Refetch.
type SelectStatement struct {
	statement

	param         *Binding
	result        *Binding
	paramVersion  uint64
	resultVersion uint64
	pending       bool
}

// NewSelectStatement prepares text on conn. param may be nil for queries
// without placeholders.
func NewSelectStatement(ctx context.Context, conn *Connection, text string, param, result *Binding) (*SelectStatement, error) {
	st, err := newStatement(ctx, conn, text)
	if err != nil {
		return nil, err
	}
	return &SelectStatement{statement: st, param: param, result: result}, nil
}

// Execute runs the query and fetches the first row. The result stays pending
// unless the fetch returned FetchNoData, so the caller frees it after reading
// the row, refetching truncated columns first if needed.
func (s *SelectStatement) Execute(ctx context.Context) (FetchResult, error) {
	if err := s.Start(ctx); err != nil {
		return FetchNoData, err
	}
	return s.Fetch()
}

// Start executes the query without fetching. The connection records the
// statement as holding its pending result until it is freed.
func (s *SelectStatement) Start(ctx context.Context) error {
	start := time.Now()
	err := s.start(ctx)
	s.observe("select", start, err, 0)
	return err
}

func (s *SelectStatement) start(ctx context.Context) error {
	if err := s.reset(); err != nil {
		return err
	}
	s.release()

	if err := s.bindParams(s.param, &s.paramVersion); err != nil {
		return err
	}
	if err := s.bindResults(s.result, &s.resultVersion); err != nil {
		return err
	}
	if err := s.conn.claim(s); err != nil {
		return err
	}
	if err := s.native.Execute(ctx); err != nil {
		return s.dbError("execute", err)
	}

	s.pending = true
	s.conn.active = s
	return nil
}

// Fetch moves to the next row. Results rebind first when the result binding
// changed since the last fetch. On FetchNoData the result is freed.
func (s *SelectStatement) Fetch() (FetchResult, error) {
	if !s.pending {
		return FetchNoData, s.dbError("fetch", errNoPendingResult)
	}
	if err := s.bindResults(s.result, &s.resultVersion); err != nil {
		return FetchNoData, err
	}

	r, err := s.native.Fetch()
	if err != nil {
		return FetchNoData, s.dbError("fetch", err)
	}
	if r == FetchNoData {
		if err := s.FreeResult(); err != nil {
			return FetchNoData, err
		}
	}
	return r, nil
}

// Refetch reloads every result column flagged as truncated from the current
// row, clearing the flag first. Columns that were not truncated are left
// alone, so a second call without a new truncation does nothing.
func (s *SelectStatement) Refetch() error {
	if !s.pending {
		return s.dbError("refetch", errNoPendingResult)
	}
	if err := s.bindResults(s.result, &s.resultVersion); err != nil {
		return err
	}

	for i := range s.result.Bind {
		b := &s.result.Bind[i]
		if b.Truncated == nil || !*b.Truncated {
			continue
		}
		*b.Truncated = false
		if err := s.native.FetchColumn(b, i, 0); err != nil {
			return s.dbError("fetch column", err)
		}
	}
	return nil
}

// FreeResult releases the pending result, if any.
func (s *SelectStatement) FreeResult() error {
	if !s.pending {
		return nil
	}
	s.release()
	if s.native == nil {
		return nil
	}
	if err := s.native.FreeResult(); err != nil {
		return s.dbError("free result", err)
	}
	return nil
}

// Pending reports whether a result set is open.
func (s *SelectStatement) Pending() bool {
	return s.pending
}

// Close frees any pending result and releases the native handle.
func (s *SelectStatement) Close() error {
	s.release()
	return s.statement.Close()
}

func (s *SelectStatement) release() {
	s.pending = false
	s.conn.clearActive(s)
}

// UpdateStatement updates one row identified by its id.
//
// The parameter array is the data binding followed by the id binding, so the
// statement text must place the id condition after every SET column.
type UpdateStatement struct {
	statement

	data        *Binding
	id          *Binding
	dataVersion uint64
	idVersion   uint64
	binds       []Bind
}

// NewUpdateStatement prepares text on conn. data holds the updated columns
// without the id; id holds the id columns.
func NewUpdateStatement(ctx context.Context, conn *Connection, text string, data, id *Binding) (*UpdateStatement, error) {
	st, err := newStatement(ctx, conn, text)
	if err != nil {
		return nil, err
	}
	return &UpdateStatement{
		statement: st,
		data:      data,
		id:        id,
		binds:     make([]Bind, data.Len()+id.Len()),
	}, nil
}

// Execute updates the row.
//
// Returns:
//   - nil when at least one row was affected
//   - ErrObjectNotFound when no row matched the id
//   - a *DatabaseError for native failures
func (s *UpdateStatement) Execute(ctx context.Context) error {
	start := time.Now()
	n, err := s.execute(ctx)
	s.observe("update", start, err, n)
	return err
}

func (s *UpdateStatement) execute(ctx context.Context) (int64, error) {
	if err := s.reset(); err != nil {
		return 0, err
	}

	if s.data.NeedsRebind(s.dataVersion) || s.id.NeedsRebind(s.idVersion) {
		copy(s.binds, s.data.Bind)
		copy(s.binds[s.data.Len():], s.id.Bind)
		if err := s.native.BindParams(s.binds); err != nil {
			return 0, s.dbError("bind parameters", err)
		}
		s.dataVersion = s.data.Version
		s.idVersion = s.id.Version
	}

	if err := s.native.Execute(ctx); err != nil {
		return 0, s.dbError("execute", err)
	}

	n, err := s.affectedRows()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrObjectNotFound
	}
	return n, nil
}

// DeleteStatement deletes rows matching its parameters.
type DeleteStatement struct {
	statement

	param        *Binding
	paramVersion uint64
}

// NewDeleteStatement prepares text on conn.
func NewDeleteStatement(ctx context.Context, conn *Connection, text string, param *Binding) (*DeleteStatement, error) {
	st, err := newStatement(ctx, conn, text)
	if err != nil {
		return nil, err
	}
	return &DeleteStatement{statement: st, param: param}, nil
}

// Execute deletes one object. It returns ErrObjectNotFound when no row
// matched.
func (s *DeleteStatement) Execute(ctx context.Context) error {
	n, err := s.ExecuteCount(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrObjectNotFound
	}
	return nil
}

// ExecuteCount deletes every matching row and returns how many there were.
// Zero rows is not an error here.
func (s *DeleteStatement) ExecuteCount(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.execute(ctx)
	s.observe("delete", start, err, n)
	return n, err
}

func (s *DeleteStatement) execute(ctx context.Context) (int64, error) {
	if err := s.reset(); err != nil {
		return 0, err
	}
	if err := s.bindParams(s.param, &s.paramVersion); err != nil {
		return 0, err
	}
	if err := s.native.Execute(ctx); err != nil {
		return 0, s.dbError("execute", err)
	}
	return s.affectedRows()
}
