package mysql

import (
	"errors"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/dbinspect/internal/errs"
)

// MySQL error numbers
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errDBAccessDenied     = 1044
	errAccessDenied       = 1045
	errUnknownDatabase    = 1049
	errTooManyConnections = 1040
	errUserLimitReached   = 1203
	errTableAccessDenied  = 1142
	errColumnAccessDenied = 1143
	errQueryInterrupted   = 1317
	errMaxExecutionTime   = 3024
)

// classify maps go-sql-driver/mysql errors to a kind.
func classify(err error) (errs.ErrKind, bool) {
	if errors.Is(err, gomysql.ErrInvalidConn) {
		return errs.ErrKindConnectionFailed, true
	}
	var mysqlErr *gomysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return errs.ErrKindUnknown, false
	}
	return classifyMySQLCode(mysqlErr.Number), true
}

// classifyMySQLCode maps MySQL error numbers to ErrKind.
func classifyMySQLCode(code uint16) errs.ErrKind {
	switch code {
	case errDBAccessDenied, errAccessDenied, errTableAccessDenied, errColumnAccessDenied:
		return errs.ErrKindPermissionDenied
	case errUnknownDatabase, errTooManyConnections, errUserLimitReached:
		return errs.ErrKindConnectionFailed
	case errQueryInterrupted, errMaxExecutionTime:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}
