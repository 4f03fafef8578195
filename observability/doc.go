// Package observability defines the Observer contract through which sqlguard
// reports completed operations to application code.
//
// The monitoring package emits one OperationContext per database execution
// (Component "sqlguard", Resource the backend, SubResource the stored
// procedure). Applications plug in their own Observer, an ObserverFunc, or
// the LoggingObserver shipped here:
//
//	obs := observability.NewLoggingObserver(log, 500*time.Millisecond)
//
// Observers are optional; NewNoOpObserver returns one that discards
// everything.
package observability
