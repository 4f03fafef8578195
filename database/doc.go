// Package database provides a guarded, monitored client for SQL backends.
//
// A Database executes commands through an injected Driver and publishes four
// lifecycle events per execution (Started, Succeeded or Failed, Finished) on
// its own EventBus. It knows nothing about metrics: observers subscribe to
// the bus and derive whatever they need from the events.
//
// Three layers build on each other:
//
//   - Database resolves the connection string and timeout on every call,
//     assigns a per-client request id and publishes the events.
//   - GuardedDatabase routes every execution through a CircuitBreaker that
//     trips on the first transient connectivity failure and allows a single
//     trial once the retry interval has elapsed.
//   - MonitoredGuardedDatabase attaches an Observer before its first
//     execution and detaches it on StopMonitoring or Close.
//
// # Errors
//
// Driver errors are returned unchanged. The only errors this package
// introduces are ErrInvalidArgument (rejected before any event fires),
// ErrCircuitOpen (the driver was never invoked) and ErrObjectDisposed.
// Cancellation surfaces as context.Canceled and never trips the breaker;
// an expired deadline does.
//
// Basic Usage:
//
//	db, err := database.NewMonitoredGuarded(database.Config{
//		Name:             "Users",
//		ConnectionString: func() string { return settings.ConnectionString("Users") },
//		CommandTimeout:   func() time.Duration { return 30 * time.Second },
//	}, driver, monitoring.NewObserverBuilder(counters, log))
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	rows, err := db.ExecuteReader(ctx, database.Procedure("Users_GetByEmail", email))
//	if err != nil {
//		return err
//	}
//	for rows.Next() {
//		fmt.Println(rows.Row()["name"])
//	}
package database
