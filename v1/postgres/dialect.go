package postgres

import (
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/Aleph-Alpha/odm/v1/orm"
)

// SQLSTATE codes the runtime reacts to.
const (
	CodeUniqueViolation      = "23505"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeAdminShutdown        = "57P01"
)

// Dialect is the orm.Dialect of PostgreSQL: "$n" placeholders and error
// classification on *pgconn.PgError (pgx) and *pq.Error (lib/pq).
type Dialect struct {
	orm.DollarDialect
}

var _ orm.Dialect = Dialect{}

func (Dialect) Name() string { return "postgres" }

// SQLState returns the SQLSTATE of err, or "".
func (Dialect) SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// ErrorCode returns the SQLSTATE of err as a number when it is all digits,
// such as 23505, and 0 otherwise. SQLState gives the full code.
func (d Dialect) ErrorCode(err error) int {
	code, convErr := strconv.Atoi(d.SQLState(err))
	if convErr != nil {
		return 0
	}
	return code
}

// IsDuplicateKey reports unique_violation.
func (d Dialect) IsDuplicateKey(err error) bool {
	return d.SQLState(err) == CodeUniqueViolation
}

// IsRetryable reports serialization failures, deadlocks and an
// administrator shutdown of the backend.
func (d Dialect) IsRetryable(err error) bool {
	switch d.SQLState(err) {
	case CodeSerializationFailure, CodeDeadlockDetected, CodeAdminShutdown:
		return true
	}
	return false
}
