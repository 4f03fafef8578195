package monitoring

import (
	"context"
	"sync"

	"github.com/aalemi-dev/sqlguard/database"
	"github.com/aalemi-dev/sqlguard/tracer"
)

// TracingObserver opens a span when an execution starts and ends it when the
// execution finishes. Failed executions record their error on the span.
type TracingObserver struct {
	source database.EventSource
	tracer tracer.Tracer
	sub    subscription
	spans  sync.Map // request id -> tracer.Span
}

// NewTracingObserver creates an unregistered tracing observer for source.
func NewTracingObserver(source database.EventSource, t tracer.Tracer) *TracingObserver {
	return &TracingObserver{
		source: source,
		tracer: t,
		sub:    subscription{name: source.Name() + " tracing observer"},
	}
}

// Register implements database.Observer.
func (o *TracingObserver) Register(_ context.Context) error {
	return o.sub.register(func() []func() {
		return []func(){
			o.source.Subscribe(database.ExecutionStarted, o.started),
			o.source.Subscribe(database.ExecutionFailed, o.failed),
			o.source.Subscribe(database.ExecutionFinished, o.finished),
		}
	})
}

// Unregister implements database.Observer. Spans still open are ended.
func (o *TracingObserver) Unregister(_ context.Context) error {
	o.sub.unregister()
	o.spans.Range(func(key, value any) bool {
		o.spans.Delete(key)
		value.(tracer.Span).End()
		return true
	})
	return nil
}

// Close implements database.Observer.
func (o *TracingObserver) Close() error {
	o.sub.close()
	return o.Unregister(context.Background())
}

// SpanName is the name of the span recorded for an execution.
func SpanName(e database.ExecutionEvent) string {
	if e.Kind == database.CommandStoredProcedure {
		return CategoryPrefix + e.Database + " " + TruncateInstanceName(e.Text)
	}
	return CategoryPrefix + e.Database + " " + e.Kind.String()
}

func (o *TracingObserver) started(ctx context.Context, e database.ExecutionEvent) {
	_, span := o.tracer.StartSpan(ctx, SpanName(e))
	span.SetAttributes(map[string]interface{}{
		"db.name":           e.Database,
		"db.operation.kind": e.Kind.String(),
		"db.statement":      TruncateInstanceName(e.Text),
		"db.request_id":     e.RequestID,
	})
	o.spans.Store(e.RequestID, span)
}

func (o *TracingObserver) failed(_ context.Context, e database.ExecutionEvent) {
	if span, ok := o.spans.Load(e.RequestID); ok && e.Err != nil {
		span.(tracer.Span).RecordError(e.Err)
	}
}

func (o *TracingObserver) finished(_ context.Context, e database.ExecutionEvent) {
	if span, ok := o.spans.LoadAndDelete(e.RequestID); ok {
		span.(tracer.Span).End()
	}
}
