package logger

// Log levels accepted by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Encodings accepted by Config.Encoding.
const (
	EncodingJSON    = "json"
	EncodingConsole = "console"
)

// Config controls the zap logger built by NewLoggerClient.
type Config struct {
	// Level is the minimum level written. Unknown values fall back to Info.
	Level string

	// EnableTracing adds the trace_id and span_id of the span in the context
	// to entries written through the *WithContext methods.
	EnableTracing bool

	// ServiceName is written as the "service" field of every entry.
	ServiceName string

	// Encoding is EncodingJSON (the default) or EncodingConsole.
	Encoding string

	// CallerSkip is the number of wrapper frames between the call site and
	// the logger. Defaults to 1.
	CallerSkip int
}
