package metrics

// Default listen addresses of the two metrics endpoints.
const (
	DefaultSystemMetricsAddress      = ":9090"
	DefaultApplicationMetricsAddress = ":9091"
	DefaultPath                      = "/metrics"
)

// Config controls the two Prometheus endpoints. System metrics cover the Go
// runtime and the process; application metrics hold the sqlguard counters.
type Config struct {
	// SystemMetricsAddress is the listen address of the system endpoint.
	// nil selects DefaultSystemMetricsAddress and "" disables the endpoint.
	SystemMetricsAddress *string `mapstructure:"system_address"`

	// ApplicationMetricsAddress is the listen address of the application
	// endpoint. nil selects DefaultApplicationMetricsAddress and "" disables
	// serving; application metrics are still collected and can be gathered
	// from ApplicationRegistry.
	ApplicationMetricsAddress *string `mapstructure:"application_address"`

	// Path is the HTTP path both endpoints serve. Defaults to DefaultPath.
	Path string `mapstructure:"path"`

	// ServiceName is added as the "service" label of every metric.
	ServiceName string `mapstructure:"service_name"`
}

// Ptr returns a pointer to s, for the optional address fields.
func Ptr(s string) *string {
	return &s
}

func address(addr *string, fallback string) string {
	if addr == nil {
		return fallback
	}
	return *addr
}
