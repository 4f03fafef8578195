// Package logger provides the structured zap logger used across sqlguard.
//
// Entries are JSON on stderr by default and carry the service name and pid.
// With Config.EnableTracing the *WithContext methods add the trace and span
// ids of the active OpenTelemetry span, so database events can be correlated
// with the spans recorded by the monitoring package.
//
//	log, err := logger.NewLoggerClient(logger.Config{Level: logger.Info, ServiceName: "accounts"})
//	if err != nil {
//		return err
//	}
//	log.With(map[string]interface{}{"backend": "Users"}).Warn("circuit breaker opened", err)
//
// FXModule provides both *LoggerClient and Logger.
package logger
