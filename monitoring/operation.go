package monitoring

import (
	"context"
	"time"

	"github.com/aalemi-dev/sqlguard/database"
	"github.com/aalemi-dev/sqlguard/observability"
)

// Component is the OperationContext.Component reported for executions.
const Component = "sqlguard"

// OperationObserver forwards every finished execution to an
// observability.Observer.
type OperationObserver struct {
	source   database.EventSource
	observer observability.Observer
	sub      subscription
}

// NewOperationObserver creates an unregistered operation observer for source.
// A nil observer discards every operation.
func NewOperationObserver(source database.EventSource, observer observability.Observer) *OperationObserver {
	if observer == nil {
		observer = observability.NewNoOpObserver()
	}
	return &OperationObserver{
		source:   source,
		observer: observer,
		sub:      subscription{name: source.Name() + " operation observer"},
	}
}

// Register implements database.Observer.
func (o *OperationObserver) Register(_ context.Context) error {
	return o.sub.register(func() []func() {
		return []func(){o.source.Subscribe(database.ExecutionFinished, o.finished)}
	})
}

// Unregister implements database.Observer.
func (o *OperationObserver) Unregister(_ context.Context) error {
	o.sub.unregister()
	return nil
}

// Close implements database.Observer.
func (o *OperationObserver) Close() error {
	o.sub.close()
	return nil
}

func (o *OperationObserver) finished(_ context.Context, e database.ExecutionEvent) {
	var procedure string
	if e.Kind == database.CommandStoredProcedure {
		procedure = TruncateInstanceName(e.Text)
	}
	o.observer.ObserveOperation(observability.OperationContext{
		Component:   Component,
		Operation:   e.Kind.String(),
		Resource:    e.Database,
		SubResource: procedure,
		Duration:    time.Since(e.StartedAt),
		Error:       e.Err,
		Metadata: map[string]interface{}{
			"request_id": e.RequestID,
		},
	})
}
