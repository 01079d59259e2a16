package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/odm/v1/orm"
)

var widgetTraits = &orm.ObjectTraits{
	Name: "widget",
	Columns: []orm.ColumnSpec{
		{Name: "id", Type: orm.TypeLongLong},
		{Name: "label", Type: orm.TypeString, Capacity: 8},
	},
	IDColumns:        []int{0},
	PersistStatement: "INSERT INTO widget (id, label) VALUES (?, ?)",
	FindStatement:    "SELECT widget.id, widget.label FROM widget WHERE widget.id=?",
	UpdateStatement:  "UPDATE widget SET label=? WHERE id=?",
	EraseStatement:   "DELETE FROM widget WHERE id=?",
	QueryStatement:   "SELECT widget.id, widget.label FROM widget",
}

type widget struct{}

func (widget) ObjectTraits() *orm.ObjectTraits { return widgetTraits }

var widgetLabel = orm.NewQueryColumn[string]("widget", "label", orm.TypeString)

var errDeadlock = errors.New("deadlock found when trying to get lock")

// fakeDialect classifies errDeadlock as retryable.
type fakeDialect struct {
	orm.QuestionDialect
}

func (fakeDialect) Name() string { return "fake" }

func (fakeDialect) IsRetryable(err error) bool { return errors.Is(err, errDeadlock) }

// fakeServer is the database/sql side of fakeBackend: prepared statements
// record their arguments and return canned rows.
type fakeServer struct {
	mu         sync.Mutex
	rows       map[string][][]driver.Value
	affected   map[string]int64
	calls      map[string][][]driver.Value
	directives []string
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		rows:     make(map[string][][]driver.Value),
		affected: make(map[string]int64),
		calls:    make(map[string][][]driver.Value),
	}
}

func (s *fakeServer) Connect(context.Context) (driver.Conn, error) { return &fakeConn{s}, nil }
func (s *fakeServer) Driver() driver.Driver                        { return fakeDriver{} }

func (s *fakeServer) executed(query string) [][]driver.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[query]
}

func (s *fakeServer) txDirectives() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.directives...)
}

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return nil, errors.New("use the connector") }

type fakeConn struct{ s *fakeServer }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) { return &fakeStmt{c.s, query}, nil }
func (c *fakeConn) Close() error                              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error)                 { return nil, errors.New("not supported") }
func (c *fakeConn) Ping(context.Context) error                { return nil }

func (c *fakeConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.directives = append(c.s.directives, query)
	return driver.RowsAffected(0), nil
}

type fakeStmt struct {
	s     *fakeServer
	query string
}

func (st *fakeStmt) Close() error  { return nil }
func (st *fakeStmt) NumInput() int { return -1 }
func (st *fakeStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, errors.New("use ExecContext")
}
func (st *fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errors.New("use QueryContext")
}

func (st *fakeStmt) record(args []driver.NamedValue) {
	values := make([]driver.Value, len(args))
	for i, a := range args {
		values[i] = a.Value
	}
	st.s.calls[st.query] = append(st.s.calls[st.query], values)
}

func (st *fakeStmt) ExecContext(_ context.Context, args []driver.NamedValue) (driver.Result, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	st.record(args)
	n, ok := st.s.affected[st.query]
	if !ok {
		n = 1
	}
	return driver.RowsAffected(n), nil
}

func (st *fakeStmt) QueryContext(_ context.Context, args []driver.NamedValue) (driver.Rows, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	st.record(args)
	return &fakeRows{rows: st.s.rows[st.query]}, nil
}

type fakeRows struct {
	rows [][]driver.Value
	pos  int
}

func (r *fakeRows) Columns() []string {
	if len(r.rows) == 0 {
		return []string{"id", "label"}
	}
	cols := make([]string, len(r.rows[0]))
	for i := range cols {
		cols[i] = fmt.Sprintf("c%d", i)
	}
	return cols
}

func (r *fakeRows) Close() error { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

// fakeBackend serves an orm.Database over fakeServer. txErrs are returned,
// one per call, by the first Transaction calls instead of running them.
type fakeBackend struct {
	server *fakeServer
	db     *orm.Database

	mu       sync.Mutex
	txErrs   []error
	txCalls  int
	migrated []string
	shutdown int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	server := newFakeServer()
	sqlDB := sql.OpenDB(server)
	db := orm.NewDatabase(sqlDB, orm.Options{Dialect: fakeDialect{}})
	t.Cleanup(func() {
		_ = db.Close()
		_ = sqlDB.Close()
	})
	return &fakeBackend{server: server, db: db}
}

func (b *fakeBackend) Database() *orm.Database { return b.db }
func (b *fakeBackend) Dialect() orm.Dialect    { return fakeDialect{} }

func (b *fakeBackend) Transaction(ctx context.Context, fn func(ctx context.Context, tx *orm.Transaction) error) error {
	b.mu.Lock()
	b.txCalls++
	if len(b.txErrs) > 0 {
		err := b.txErrs[0]
		b.txErrs = b.txErrs[1:]
		b.mu.Unlock()
		return err
	}
	b.mu.Unlock()
	return b.db.Transaction(ctx, fn)
}

func (b *fakeBackend) Migrate(_ context.Context, statements ...string) error {
	b.migrated = append(b.migrated, statements...)
	return nil
}

func (b *fakeBackend) GracefulShutdown() error {
	b.shutdown++
	return nil
}

// recordingTracer opens spans on an sdk provider backed by a SpanRecorder.
type recordingTracer struct {
	recorder *tracetest.SpanRecorder
	provider *sdktrace.TracerProvider
}

func newRecordingTracer() *recordingTracer {
	recorder := tracetest.NewSpanRecorder()
	return &recordingTracer{
		recorder: recorder,
		provider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)),
	}
}

func (r *recordingTracer) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.provider.Tracer("test").Start(ctx, name)
}

func (r *recordingTracer) RecordErrorOnSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (r *recordingTracer) SetAttributes(span trace.Span, attrs map[string]interface{}) {
	for k, v := range attrs {
		span.SetAttributes(attribute.String(k, fmt.Sprint(v)))
	}
}
