// Package tracer creates OpenTelemetry spans behind a small interface.
//
// NewClient installs a TracerProvider as the global provider and, with
// Config.EnableExport, batches spans to an OTLP HTTP collector.
// NewClientWithProvider wraps an existing provider instead, which is how
// tests attach an in-memory span recorder.
//
//	client, err := tracer.NewClient(tracer.Config{ServiceName: "accounts", AppEnv: "production", EnableExport: true})
//	if err != nil {
//		return err
//	}
//	defer client.Shutdown(context.Background())
//
//	ctx, span := client.StartSpan(ctx, "sqlguard.Users Users_GetByEmail")
//	defer span.End()
//	span.SetAttributes(map[string]interface{}{"db.name": "Users"})
//
// The monitoring package turns database execution events into spans through
// the Tracer interface. FXModule provides both *TracerClient and Tracer and
// flushes pending spans on application stop.
package tracer
