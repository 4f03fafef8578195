// Package postgres is the PostgreSQL driver for sqlguard databases.
//
// Driver implements database.Driver on GORM and pgx. Connection strings may
// be keyword/value strings or postgres:// URLs, optionally followed by the
// read-intent qualifier of database.QualifyConnectionString:
//
//	host=users-db user=app password=secret dbname=users;applicationintent=ReadOnly
//
// Read intent sets default_transaction_read_only=on for the session.
//
// Stored procedures map to two statements. ExecuteNonQuery sends
// CALL name($1, ...), so the routine must be a PROCEDURE. ExecuteReader and
// ExecuteScalar send SELECT * FROM name($1, ...), so the routine must be a
// function returning a row set or a single value.
//
// Transient connectivity errors are SQLSTATE class 08, query_canceled
// (57014), the 57P0x shutdown codes, connection failures and timeouts.
// Everything else passes through without tripping the breaker.
package postgres
