// Package monitoring derives operational counters from database execution
// events.
//
// A DatabaseObserver subscribes to a client's Started, Succeeded, Failed and
// Finished events and keeps four counters per instance in the category
// "sqlguard.<backend>":
//
//   - Requests/s: successful executions
//   - Failures/s: failed executions
//   - Requests Outstanding: executions started but not yet finished
//   - Avg Response Time: elapsed time from Started to Finished
//
// The "_Total" instance aggregates every execution. Stored procedures also
// get an instance named after the procedure, truncated to 127 characters;
// ad-hoc text commands are only counted in the total so that literal values
// in SQL text cannot inflate cardinality. Two procedure names that share
// their first 127 characters are counted together.
//
// Counters are written through a CounterRegistry. InMemoryCounterRegistry
// keeps them in process; PrometheusCounterRegistry exports them through the
// metrics package.
//
// TracingObserver and OperationObserver are optional companions that emit
// OpenTelemetry spans and observability.OperationContext values for the same
// events.
package monitoring
