package tracer

import (
	"context"
)

// Tracer creates spans. It is implemented by *TracerClient.
type Tracer interface {
	// StartSpan starts a span named name as a child of the span in ctx, if
	// any, and returns a context carrying the new span. The caller must End it.
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span is a single timed operation within a trace.
type Span interface {
	// End completes the span. Nothing may be recorded on it afterwards.
	End()

	// SetAttributes adds key-value pairs to the span. Strings, integers,
	// floats, booleans and durations keep their type; anything else is
	// recorded as its fmt.Sprint form.
	SetAttributes(attrs map[string]interface{})

	// RecordError records err as an event and marks the span as failed.
	RecordError(err error)
}
