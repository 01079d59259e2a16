package mariadb

import (
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/Aleph-Alpha/odm/v1/orm"
)

// MySQL server error numbers the runtime reacts to.
const (
	ErDupEntry        = 1062
	ErLockWaitTimeout = 1205
	ErLockDeadlock    = 1213
	ErServerGone      = 2006
	ErServerLost      = 2013
)

// Dialect is the orm.Dialect of MariaDB and MySQL: "?" placeholders and
// error classification on *mysql.MySQLError.
type Dialect struct{}

var _ orm.Dialect = Dialect{}

func (Dialect) Name() string { return "mariadb" }

func (Dialect) Placeholder(int) string { return "?" }

// ErrorCode returns the server error number of err, or 0.
func (Dialect) ErrorCode(err error) int {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return int(me.Number)
	}
	return 0
}

// IsDuplicateKey reports ER_DUP_ENTRY.
func (d Dialect) IsDuplicateKey(err error) bool {
	return d.ErrorCode(err) == ErDupEntry
}

// IsRetryable reports deadlocks, lock wait timeouts and a lost server
// connection. The transaction that hit them can run again.
func (d Dialect) IsRetryable(err error) bool {
	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	switch d.ErrorCode(err) {
	case ErLockDeadlock, ErLockWaitTimeout, ErServerGone, ErServerLost:
		return true
	}
	return false
}
