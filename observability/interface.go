package observability

import "time"

// Observer receives one OperationContext per completed operation.
//
// ObserveOperation is called synchronously on the path of the operation,
// so implementations must be fast and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a completed operation.
type OperationContext struct {
	// Component is the reporting layer, for example "sqlguard".
	Component string

	// Operation is the kind of work, for example "StoredProcedure" or "Text".
	Operation string

	// Resource is the primary target, for example the backend name.
	Resource string

	// SubResource narrows Resource, for example a stored procedure name.
	// Empty when not applicable.
	SubResource string

	Duration time.Duration

	// Error is nil on success.
	Error error

	// Size is the number of bytes or rows involved, when known.
	Size int64

	Metadata map[string]interface{}
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f.
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}
