package mariadb

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
)

// Error categories returned by TranslateError. The original error stays in
// the chain, so errors.As still finds the *mysql.MySQLError.
var (
	ErrDuplicateKey             = errors.New("duplicate key violation")
	ErrForeignKey               = errors.New("foreign key violation")
	ErrNotNullViolation         = errors.New("not null constraint violation")
	ErrCheckConstraintViolation = errors.New("check constraint violation")
	ErrDataTooLong              = errors.New("data too long for column")
	ErrNumericOverflow          = errors.New("numeric value overflow")
	ErrInvalidDataType          = errors.New("invalid data type")
	ErrDivisionByZero           = errors.New("division by zero")
	ErrTableNotFound            = errors.New("table not found")
	ErrColumnNotFound           = errors.New("column not found")
	ErrDatabaseNotFound         = errors.New("database not found")
	ErrFunctionNotFound         = errors.New("function not found")
	ErrInvalidQuery             = errors.New("invalid query")
	ErrPermissionDenied         = errors.New("permission denied")
	ErrInvalidPassword          = errors.New("invalid password")
	ErrReadOnlyTransaction      = errors.New("write attempted in read-only transaction")
	ErrDeadlock                 = errors.New("deadlock detected")
	ErrLockTimeout              = errors.New("lock acquisition timeout")
	ErrStatementTimeout         = errors.New("statement timeout")
	ErrTooManyConnections       = errors.New("too many connections")
	ErrConnectionFailed         = errors.New("database connection failed")
	ErrConnectionLost           = errors.New("connection lost")
	ErrSystemError              = errors.New("system error")
)

var errorsByNumber = map[uint16]error{
	1062: ErrDuplicateKey, // ER_DUP_ENTRY
	1586: ErrDuplicateKey, // ER_DUP_ENTRY_WITH_KEY_NAME
	1216: ErrForeignKey,   // ER_NO_REFERENCED_ROW
	1217: ErrForeignKey,   // ER_ROW_IS_REFERENCED
	1451: ErrForeignKey,   // ER_ROW_IS_REFERENCED_2
	1452: ErrForeignKey,   // ER_NO_REFERENCED_ROW_2

	1048: ErrNotNullViolation,         // ER_BAD_NULL_ERROR
	1364: ErrNotNullViolation,         // ER_NO_DEFAULT_FOR_FIELD
	3819: ErrCheckConstraintViolation, // MySQL 8.0.16+
	4025: ErrCheckConstraintViolation, // MariaDB 10.2+
	1406: ErrDataTooLong,              // ER_DATA_TOO_LONG
	1264: ErrNumericOverflow,          // ER_WARN_DATA_OUT_OF_RANGE
	1690: ErrNumericOverflow,          // ER_DATA_OUT_OF_RANGE
	1366: ErrInvalidDataType,          // ER_TRUNCATED_WRONG_VALUE_FOR_FIELD
	1365: ErrDivisionByZero,           // ER_DIVISION_BY_ZERO

	1051: ErrTableNotFound,    // ER_BAD_TABLE_ERROR
	1146: ErrTableNotFound,    // ER_NO_SUCH_TABLE
	1054: ErrColumnNotFound,   // ER_BAD_FIELD_ERROR
	1049: ErrDatabaseNotFound, // ER_BAD_DB_ERROR
	1305: ErrFunctionNotFound, // ER_SP_DOES_NOT_EXIST
	1318: ErrInvalidQuery,     // ER_SP_WRONG_NO_OF_ARGS
	1064: ErrInvalidQuery,     // ER_PARSE_ERROR
	1065: ErrInvalidQuery,     // ER_EMPTY_QUERY

	1044: ErrPermissionDenied,    // ER_DBACCESS_DENIED_ERROR
	1142: ErrPermissionDenied,    // ER_TABLEACCESS_DENIED_ERROR
	1370: ErrPermissionDenied,    // ER_PROCACCESS_DENIED_ERROR
	1045: ErrInvalidPassword,     // ER_ACCESS_DENIED_ERROR
	1792: ErrReadOnlyTransaction, // ER_CANT_EXECUTE_IN_READ_ONLY_TRANSACTION

	1213: ErrDeadlock,           // ER_LOCK_DEADLOCK
	1205: ErrLockTimeout,        // ER_LOCK_WAIT_TIMEOUT
	1969: ErrStatementTimeout,   // ER_STATEMENT_TIMEOUT (MariaDB)
	3024: ErrStatementTimeout,   // ER_QUERY_TIMEOUT (MySQL)
	1040: ErrTooManyConnections, // ER_CON_COUNT_ERROR

	1158: ErrConnectionLost,   // ER_NET_READ_ERROR
	1159: ErrConnectionLost,   // ER_NET_READ_INTERRUPTED
	1160: ErrConnectionLost,   // ER_NET_ERROR_ON_WRITE
	1161: ErrConnectionLost,   // ER_NET_WRITE_INTERRUPTED
	2002: ErrConnectionFailed, // CR_CONNECTION_ERROR
	2003: ErrConnectionFailed, // CR_CONN_HOST_ERROR
	2006: ErrConnectionLost,   // CR_SERVER_GONE_ERROR
	2013: ErrConnectionLost,   // CR_SERVER_LOST
	2055: ErrConnectionLost,   // CR_SERVER_LOST_EXTENDED
}

// transientNumbers are the server and client error numbers that mean the
// backend could not be reached or did not answer in time.
var transientNumbers = map[uint16]struct{}{
	1158: {}, 1159: {}, 1160: {}, 1161: {},
	1969: {}, 3024: {},
	2002: {}, 2003: {}, 2006: {}, 2013: {}, 2055: {},
}

// TranslateError wraps err with the category sentinel that matches it.
// Errors that match no category are returned unchanged.
func (d *Driver) TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		sentinel, ok := errorsByNumber[mysqlErr.Number]
		if !ok {
			sentinel = ErrSystemError
		}
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrStatementTimeout, err)
	case errors.Is(err, mysql.ErrInvalidConn), errors.Is(err, driver.ErrBadConn):
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	case isNetError(err):
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return err
}

// IsTransientConnectivityError reports whether err means the server is
// unreachable or timed out. context.DeadlineExceeded counts as a timeout
// since it satisfies net.Error. Such errors trip the circuit breaker; everything
// else is treated as a fault of the command.
func (d *Driver) IsTransientConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		_, ok := transientNumbers[mysqlErr.Number]
		return ok
	}
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	return isNetError(err)
}

func isNetError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
