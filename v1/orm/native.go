package orm

import (
	"context"
	"strconv"
)

//go:generate mockgen -source=native.go -destination=mock_native_test.go -package=orm

// NativeConnection is the client connection the runtime executes on. It owns
// the network session; statements are opened against it.
type NativeConnection interface {
	// NewStatement opens an unprepared statement handle.
	NewStatement() (NativeStatement, error)

	// Exec runs a directive such as BEGIN or COMMIT without preparing it.
	Exec(ctx context.Context, text string) error

	// Ping checks that the session is alive.
	Ping(ctx context.Context) error

	// Close ends the session.
	Close() error
}

// NativeStatement is one prepared statement handle of the native client.
//
// Bind descriptors handed to BindParams and BindResults stay valid until the
// next call of the same method; the client reads parameters from their buffers
// at Execute and writes result columns into them at Fetch.
type NativeStatement interface {
	Prepare(ctx context.Context, text string) error

	// Reset discards any pending result so the statement can be executed again.
	Reset() error

	BindParams(binds []Bind) error
	BindResults(binds []Bind) error
	Execute(ctx context.Context) error

	// Fetch moves to the next row and stores its columns. It returns
	// FetchTruncated when a variable-length column did not fit its buffer.
	Fetch() (FetchResult, error)

	// FetchColumn stores column col of the current row into b, starting at
	// byte offset of the value.
	FetchColumn(b *Bind, col int, offset int) error

	// FreeResult releases the pending result set.
	FreeResult() error

	// AffectedRows returns the row count of the last execution, or -1 when
	// the client could not determine it.
	AffectedRows() (int64, error)

	Close() error
}

// Dialect classifies native diagnostics and renders placeholders for one
// database server family.
type Dialect interface {
	Name() string

	// Placeholder renders the n-th (1-based) parameter marker.
	Placeholder(n int) string

	// IsDuplicateKey reports a uniqueness constraint violation.
	IsDuplicateKey(err error) bool

	// IsRetryable reports deadlocks, serialization failures and similar
	// conditions where repeating the transaction may succeed.
	IsRetryable(err error) bool

	// ErrorCode extracts the native error number, 0 if there is none.
	ErrorCode(err error) int
}

// QuestionDialect renders every placeholder as "?" and classifies nothing.
// It is the default when no dialect is configured.
type QuestionDialect struct{}

func (QuestionDialect) Name() string              { return "generic" }
func (QuestionDialect) Placeholder(int) string    { return "?" }
func (QuestionDialect) IsDuplicateKey(error) bool { return false }
func (QuestionDialect) IsRetryable(error) bool    { return false }
func (QuestionDialect) ErrorCode(error) int       { return 0 }

// DollarDialect renders numbered placeholders ($1, $2, ...) and classifies
// nothing. Backend packages embed it and add their diagnostics.
type DollarDialect struct{}

func (DollarDialect) Name() string              { return "generic-dollar" }
func (DollarDialect) Placeholder(n int) string  { return "$" + strconv.Itoa(n) }
func (DollarDialect) IsDuplicateKey(error) bool { return false }
func (DollarDialect) IsRetryable(error) bool    { return false }
func (DollarDialect) ErrorCode(error) int       { return 0 }
