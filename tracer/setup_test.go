package tracer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNewClient_NoExport(t *testing.T) {
	t.Parallel()
	client, err := NewClient(Config{ServiceName: "test-service", AppEnv: "test"})

	require.NoError(t, err)
	assert.NotNil(t, client.tracer)
	assert.NoError(t, client.Shutdown(context.Background()))
}

func TestConfig_DefaultServiceName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultServiceName, Config{}.serviceName())
	assert.Equal(t, "accounts", Config{ServiceName: "accounts"}.serviceName())
}

func TestNewClient_EnableExport_NoCollector(t *testing.T) {
	t.Parallel()

	// The OTLP HTTP exporter connects lazily, so a missing collector only
	// surfaces when spans are flushed.
	client, err := NewClient(Config{
		ServiceName:  "test-service",
		AppEnv:       "production",
		EnableExport: true,
		Endpoint:     "127.0.0.1:4318",
		Insecure:     true,
		SampleRatio:  0.25,
	})

	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewClient_EnableExport_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, err := newClientWithContext(ctx, Config{ServiceName: "test-service", EnableExport: true})

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "failed to initialize OTLP exporter")
}

func TestNewClientWithProvider_RecordsSpans(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	client := NewClientWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	_, span := client.StartSpan(context.Background(), "sqlguard.Users Users_Get")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "sqlguard.Users Users_Get", ended[0].Name())
	assert.Equal(t, instrumentationName, ended[0].InstrumentationScope().Name)
}

func TestShutdown_NilClient(t *testing.T) {
	t.Parallel()
	var client *TracerClient
	assert.NoError(t, client.Shutdown(context.Background()))
}
