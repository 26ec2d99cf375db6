package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/nadzzz/tandem/internal/config"
)

func restoreGlobalProvider(t *testing.T) {
	t.Helper()
	orig := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(orig) })
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	restoreGlobalProvider(t)
	before := otel.GetTracerProvider()

	p, err := Init(context.Background(), config.TelemetryConfig{ServiceName: "tandem"})
	require.NoError(t, err)
	assert.Nil(t, p.tp)
	assert.Equal(t, before, otel.GetTracerProvider())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInitWithEndpoint(t *testing.T) {
	restoreGlobalProvider(t)

	p, err := Init(context.Background(), config.TelemetryConfig{
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "tandem-test",
		Insecure:     true,
	})
	require.NoError(t, err)
	require.NotNil(t, p.tp)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestResourceNamesService(t *testing.T) {
	res := newResource("")
	v, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "tandem", v.AsString())
}

func TestNilProviderShutdown(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}
