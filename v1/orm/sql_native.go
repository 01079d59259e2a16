package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// sqlConnection serves the native interfaces from one database/sql session,
// so any database/sql driver can act as the native client.
type sqlConnection struct {
	conn *sql.Conn
}

// NewSQLConnection adapts a single database/sql session. Statements are
// prepared on that session only, and Close returns it to its pool.
func NewSQLConnection(conn *sql.Conn) NativeConnection {
	return &sqlConnection{conn: conn}
}

func (c *sqlConnection) NewStatement() (NativeStatement, error) {
	return &sqlStatement{conn: c.conn, affected: -1}, nil
}

func (c *sqlConnection) Exec(ctx context.Context, text string) error {
	_, err := c.conn.ExecContext(ctx, text)
	return err
}

func (c *sqlConnection) Ping(ctx context.Context) error {
	return c.conn.PingContext(ctx)
}

func (c *sqlConnection) Close() error {
	return c.conn.Close()
}

var errNotPrepared = errors.New("statement is not prepared")

// sqlStatement keeps the raw values of the current row so truncated columns
// can be delivered again by FetchColumn.
type sqlStatement struct {
	conn     *sql.Conn
	stmt     *sql.Stmt
	params   []Bind
	results  []Bind
	rows     *sql.Rows
	values   []any
	affected int64
}

func (s *sqlStatement) Prepare(ctx context.Context, text string) error {
	stmt, err := s.conn.PrepareContext(ctx, text)
	if err != nil {
		return err
	}
	s.stmt = stmt
	return nil
}

func (s *sqlStatement) Reset() error {
	s.affected = -1
	return s.FreeResult()
}

func (s *sqlStatement) BindParams(binds []Bind) error {
	s.params = binds
	return nil
}

func (s *sqlStatement) BindResults(binds []Bind) error {
	s.results = binds
	return nil
}

func (s *sqlStatement) args() ([]any, error) {
	args := make([]any, len(s.params))
	for i := range s.params {
		v, err := s.params[i].Value()
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		if d, ok := v.(time.Duration); ok {
			v = formatDuration(d)
		}
		args[i] = v
	}
	return args, nil
}

func (s *sqlStatement) Execute(ctx context.Context) error {
	if s.stmt == nil {
		return errNotPrepared
	}
	args, err := s.args()
	if err != nil {
		return err
	}

	if len(s.results) > 0 {
		rows, err := s.stmt.QueryContext(ctx, args...)
		if err != nil {
			return err
		}
		s.rows = rows
		return nil
	}

	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.affected = -1
		return nil
	}
	s.affected = n
	return nil
}

func (s *sqlStatement) Fetch() (FetchResult, error) {
	if s.rows == nil {
		return FetchNoData, errNoPendingResult
	}
	if !s.rows.Next() {
		return FetchNoData, s.rows.Err()
	}

	if cap(s.values) < len(s.results) {
		s.values = make([]any, len(s.results))
	}
	s.values = s.values[:len(s.results)]
	dest := make([]any, len(s.values))
	for i := range s.values {
		s.values[i] = nil
		dest[i] = &s.values[i]
	}
	if err := s.rows.Scan(dest...); err != nil {
		return FetchNoData, err
	}

	result := FetchSuccess
	for i := range s.results {
		b := &s.results[i]
		if err := b.Store(s.values[i]); err != nil {
			return FetchNoData, fmt.Errorf("column %d: %w", i+1, err)
		}
		if b.Truncated != nil && *b.Truncated {
			result = FetchTruncated
		}
	}
	return result, nil
}

func (s *sqlStatement) FetchColumn(b *Bind, col int, offset int) error {
	if col < 0 || col >= len(s.values) {
		return fmt.Errorf("column %d not in current row", col)
	}
	v := s.values[col]
	if offset > 0 {
		switch t := v.(type) {
		case []byte:
			v = t[min(offset, len(t)):]
		case string:
			v = t[min(offset, len(t)):]
		}
	}
	return b.Store(v)
}

func (s *sqlStatement) FreeResult() error {
	if s.rows == nil {
		return nil
	}
	err := s.rows.Close()
	s.rows = nil
	return err
}

func (s *sqlStatement) AffectedRows() (int64, error) {
	return s.affected, nil
}

func (s *sqlStatement) Close() error {
	err := s.FreeResult()
	if s.stmt != nil {
		err = errors.Join(err, s.stmt.Close())
		s.stmt = nil
	}
	return err
}

// formatDuration renders a TIME parameter as [-]hh:mm:ss.ffffff.
func formatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := d / time.Hour
	m := d % time.Hour / time.Minute
	sec := d % time.Minute / time.Second
	us := d % time.Second / time.Microsecond
	return fmt.Sprintf("%s%02d:%02d:%02d.%06d", sign, h, m, sec, us)
}
