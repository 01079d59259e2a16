package orm

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Common orm errors. Every native failure is translated into one of these at
// the call site; nothing in this package retries on its own.
var (
	// ErrPreparationFailure is returned when the native client refuses to
	// prepare a statement. No partially prepared statement is left behind.
	ErrPreparationFailure = errors.New("orm: statement preparation failed")

	// ErrDatabase is returned for native execute, fetch or bind failures.
	// The native diagnostic is available through errors.As on *DatabaseError.
	ErrDatabase = errors.New("orm: database error")

	// ErrDuplicateKey is returned when an insert violates a uniqueness constraint.
	ErrDuplicateKey = errors.New("orm: duplicate key")

	// ErrObjectNotFound is returned when an update or delete matched no row.
	ErrObjectNotFound = errors.New("orm: object not found")

	// ErrNoTransaction is returned when an operation requires a current
	// transaction and none is attached to the context.
	ErrNoTransaction = errors.New("orm: no transaction")

	// ErrTransactionActive is returned when a second transaction is started
	// on a connection that already has one.
	ErrTransactionActive = errors.New("orm: transaction already active")

	// ErrTransactionFinalized is returned by Commit or Rollback on a
	// transaction that is not active.
	ErrTransactionFinalized = errors.New("orm: transaction is not active")

	// ErrInvalidParameter is returned when a value does not fit the declared
	// type of a column or query parameter.
	ErrInvalidParameter = errors.New("orm: invalid parameter")

	// ErrConnectionClosed is returned when a closed connection or pool is used.
	ErrConnectionClosed = errors.New("orm: connection closed")
)

// DatabaseError carries the native diagnostic of a failed execute, fetch,
// bind or directive call.
type DatabaseError struct {
	// Op names the failed native call, e.g. "execute" or "fetch".
	Op string

	// Code is the native error number, 0 when the dialect cannot extract one.
	Code int

	// Err is the native error.
	Err error
}

func (e *DatabaseError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("orm: %s failed (%d): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("orm: %s failed: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// Is reports ErrDatabase so callers can match on the sentinel.
func (e *DatabaseError) Is(target error) bool { return target == ErrDatabase }

// PreparationError is returned when the native client fails to prepare Text.
type PreparationError struct {
	Text string
	Err  error
}

func (e *PreparationError) Error() string {
	return fmt.Sprintf("orm: prepare %q: %v", e.Text, e.Err)
}

func (e *PreparationError) Unwrap() error { return e.Err }

func (e *PreparationError) Is(target error) bool { return target == ErrPreparationFailure }

// newDatabaseError wraps a native failure, asking the dialect for its code.
func newDatabaseError(d Dialect, op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DatabaseError
	if errors.As(err, &de) {
		return err
	}
	code := 0
	if d != nil {
		code = d.ErrorCode(err)
	}
	return &DatabaseError{Op: op, Code: code, Err: err}
}

// TranslateError converts gorm sentinels into the orm sentinels so that code
// mixing gorm helpers with statement execution can match a single error set.
// Errors that already belong to this package are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrObjectNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, gorm.ErrInvalidTransaction):
		return ErrNoTransaction
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidValue):
		return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	return err
}

// ErrorCategory groups errors by how a caller is expected to react.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	CategoryConnection
	CategoryConstraint
	CategoryNotFound
	CategoryTransaction
	CategoryPreparation
	CategoryParameter
	CategoryDatabase
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryConnection:
		return "connection"
	case CategoryConstraint:
		return "constraint"
	case CategoryNotFound:
		return "not_found"
	case CategoryTransaction:
		return "transaction"
	case CategoryPreparation:
		return "preparation"
	case CategoryParameter:
		return "parameter"
	case CategoryDatabase:
		return "database"
	default:
		return "unknown"
	}
}

// GetErrorCategory returns the category of the given error.
func GetErrorCategory(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, ErrConnectionClosed):
		return CategoryConnection
	case errors.Is(err, ErrDuplicateKey):
		return CategoryConstraint
	case errors.Is(err, ErrObjectNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrNoTransaction), errors.Is(err, ErrTransactionActive), errors.Is(err, ErrTransactionFinalized):
		return CategoryTransaction
	case errors.Is(err, ErrPreparationFailure):
		return CategoryPreparation
	case errors.Is(err, ErrInvalidParameter):
		return CategoryParameter
	case errors.Is(err, ErrDatabase):
		return CategoryDatabase
	default:
		return CategoryUnknown
	}
}

// IsRetryable reports whether repeating the whole unit of work may succeed.
// The dialect decides for native diagnostics such as deadlocks; it may be nil.
func IsRetryable(d Dialect, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionClosed) {
		return true
	}
	if d != nil && errors.Is(err, ErrDatabase) {
		return d.IsRetryable(err)
	}
	return false
}

// IsPermanent reports whether the error will recur no matter how often the
// operation is repeated.
func IsPermanent(err error) bool {
	switch GetErrorCategory(err) {
	case CategoryConstraint, CategoryNotFound, CategoryPreparation, CategoryParameter:
		return true
	default:
		return false
	}
}
