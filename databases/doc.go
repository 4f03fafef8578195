// Package databases names the logical databases of the service and hands out
// one resilient, monitored client per database.
//
// Backend is the closed set of logical databases. Settings resolves each
// Backend's driver, connection string and command timeout from a YAML file
// and SQLGUARD_* environment variables:
//
//	default_command_timeout: 30s
//	retry_interval: 100ms
//	backends:
//	  users:
//	    driver: mariadb
//	    connection_string: "app:secret@tcp(users-db:3306)/users"
//	  leased_locks:
//	    driver: postgres
//	    connection_string: "host=locks-db user=app dbname=locks"
//	    command_timeout: 2s
//	  ...
//
// Every Backend must be configured; a missing entry fails at startup rather
// than on the first execution against it. Connection strings and timeouts
// are read on every execution, and Watch reloads them when the file changes,
// so credentials can rotate without a restart.
//
// Registry builds the database.MonitoredGuardedDatabase of a Backend on first
// use and returns the same instance afterwards:
//
//	users, err := registry.Get(databases.Users)
//	if err != nil {
//		return err
//	}
//	rows, err := users.ExecuteReader(ctx, database.Procedure("Users_GetByEmail", email))
//
// Close disposes the clients that were built and leaves the rest unbuilt.
package databases
