package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error categories returned by TranslateError. The *pgconn.PgError stays in
// the chain.
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
	ErrSerializationFailure     = errors.New("serialization failure")
	ErrLockTimeout              = errors.New("lock acquisition timeout")
	ErrStatementTimeout         = errors.New("statement timeout")
	ErrTooManyConnections       = errors.New("too many connections")
	ErrConnectionFailed         = errors.New("database connection failed")
	ErrConnectionLost           = errors.New("connection lost")
	ErrSystemError              = errors.New("system error")
)

var errorsByCode = map[string]error{
	"23505": ErrDuplicateKey,             // unique_violation
	"23503": ErrForeignKey,               // foreign_key_violation
	"23502": ErrNotNullViolation,         // not_null_violation
	"23514": ErrCheckConstraintViolation, // check_violation
	"22001": ErrDataTooLong,              // string_data_right_truncation
	"22003": ErrNumericOverflow,          // numeric_value_out_of_range
	"22P02": ErrInvalidDataType,          // invalid_text_representation
	"42804": ErrInvalidDataType,          // datatype_mismatch
	"22012": ErrDivisionByZero,           // division_by_zero

	"42P01": ErrTableNotFound,    // undefined_table
	"42703": ErrColumnNotFound,   // undefined_column
	"3D000": ErrDatabaseNotFound, // invalid_catalog_name
	"42883": ErrFunctionNotFound, // undefined_function
	"42601": ErrInvalidQuery,     // syntax_error
	"42809": ErrInvalidQuery,     // wrong_object_type, e.g. CALL on a function

	"42501": ErrPermissionDenied,    // insufficient_privilege
	"28P01": ErrInvalidPassword,     // invalid_password
	"25006": ErrReadOnlyTransaction, // read_only_sql_transaction

	"40P01": ErrDeadlock,             // deadlock_detected
	"40001": ErrSerializationFailure, // serialization_failure
	"55P03": ErrLockTimeout,          // lock_not_available
	"57014": ErrStatementTimeout,     // query_canceled
	"53300": ErrTooManyConnections,   // too_many_connections

	"57P01": ErrConnectionLost, // admin_shutdown
	"57P02": ErrConnectionLost, // crash_shutdown
	"57P03": ErrConnectionLost, // cannot_connect_now
}

// transientCodes are the SQLSTATEs outside class 08 that mean the server
// cannot serve the request right now.
var transientCodes = map[string]struct{}{
	"57014": {},
	"57P01": {},
	"57P02": {},
	"57P03": {},
}

// TranslateError wraps err with the category sentinel that matches it.
// Errors that match no category are returned unchanged.
func (d *Driver) TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		sentinel, ok := errorsByCode[pgErr.Code]
		switch {
		case ok:
		case strings.HasPrefix(pgErr.Code, "08"):
			sentinel = ErrConnectionLost
		default:
			sentinel = ErrSystemError
		}
		return fmt.Errorf("%w: %w", sentinel, err)
	}

	var connectErr *pgconn.ConnectError
	switch {
	case errors.As(err, &connectErr):
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	case errors.Is(err, context.Canceled):
		return err
	case pgconn.Timeout(err), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrStatementTimeout, err)
	case errors.Is(err, driver.ErrBadConn):
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	case isNetError(err):
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return err
}

// IsTransientConnectivityError reports whether err means the server is
// unreachable, shutting down or timed out.
func (d *Driver) IsTransientConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") {
			return true
		}
		_, ok := transientCodes[pgErr.Code]
		return ok
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.Timeout(err) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	return isNetError(err)
}

func isNetError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
