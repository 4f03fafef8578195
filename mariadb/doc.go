// Package mariadb is the MariaDB/MySQL driver for sqlguard databases.
//
// Driver implements database.Driver on GORM and go-sql-driver/mysql.
// Connection strings are go-sql-driver DSNs, optionally followed by the
// read-intent qualifier appended by database.QualifyConnectionString:
//
//	app:secret@tcp(users-db:3306)/users;applicationintent=ReadOnly
//
// Read intent sets the transaction_read_only session variable on every
// connection of that pool. Stored procedures are invoked as
// CALL name(?, ...) with one placeholder per parameter.
//
// Each distinct connection string gets its own pool, opened lazily on first
// use and kept until Close. Every execution acquires a dedicated connection
// from the pool and releases it when the command completes.
//
// IsTransientConnectivityError decides which errors trip the circuit breaker:
// network failures, lost or refused connections and statement timeouts.
// TranslateError maps server error numbers to the category sentinels of this
// package for callers that want to branch on them.
//
// Basic usage:
//
//	driver := mariadb.NewDriver(mariadb.Config{})
//	defer driver.Close()
//
//	db, err := database.NewGuarded(database.Config{
//		Name:             "Users",
//		ConnectionString: func() string { return dsn },
//		CommandTimeout:   func() time.Duration { return 5 * time.Second },
//	}, driver)
package mariadb
