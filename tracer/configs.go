package tracer

// DefaultServiceName is used when Config.ServiceName is empty.
const DefaultServiceName = "sqlguard"

// Config defines how spans are produced and where they are exported.
type Config struct {
	// ServiceName identifies the process in exported traces.
	// Defaults to DefaultServiceName.
	ServiceName string

	// AppEnv is recorded as the deployment environment of every span,
	// for example "development" or "production".
	AppEnv string

	// EnableExport sends spans to an OTLP HTTP collector. When false spans are
	// still created and propagated but never leave the process.
	EnableExport bool

	// Endpoint is the host:port of the collector. When empty the exporter
	// falls back to OTEL_EXPORTER_OTLP_ENDPOINT or its own default.
	Endpoint string

	// Insecure disables TLS towards the collector.
	Insecure bool

	// SampleRatio is the fraction of root spans that are sampled. Values
	// outside (0, 1) sample everything.
	SampleRatio float64
}

func (c Config) serviceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}
