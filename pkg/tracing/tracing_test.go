package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/davoseaworthui/referral-builder-next/pkg/config"
)

var testService = Service{Name: "referral", Version: "test", Environment: "test"}

func TestConfig_FromEnvironment(t *testing.T) {
	var cfg Config
	err := config.Load(&cfg, config.WithPrefix("OTEL_"), config.WithEnvironment(map[string]string{
		"OTEL_ENABLED":                "true",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "collector:4318",
		"OTEL_SAMPLE_RATE":            "0.1",
	}))

	require.NoError(t, err)
	assert.Equal(t, Config{Enabled: true, Endpoint: "collector:4318", SampleRate: 0.1}, cfg)
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	require.NoError(t, config.Load(&cfg, config.WithEnvironment(map[string]string{})))

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4318", cfg.Endpoint)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{SampleRate: 0}.Validate())
	assert.NoError(t, Config{SampleRate: 1}.Validate())
	assert.ErrorContains(t, Config{SampleRate: 1.5}.Validate(), "OTEL_SAMPLE_RATE")
	assert.ErrorContains(t, Config{SampleRate: -0.1}.Validate(), "OTEL_SAMPLE_RATE")
	assert.ErrorContains(t, Config{Enabled: true, SampleRate: 1}.Validate(), "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func TestSetup_DisabledKeepsGlobals(t *testing.T) {
	prev := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), testService, Config{SampleRate: 1})
	require.NoError(t, err)

	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, prev, otel.GetTracerProvider())
}

func TestSetup_EnabledInstallsSDKProvider(t *testing.T) {
	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})

	// Export is asynchronous, so an unreachable collector does not fail setup.
	shutdown, err := Setup(context.Background(), testService, Config{
		Enabled:    true,
		Endpoint:   "127.0.0.1:0",
		SampleRate: 0.5,
	})
	require.NoError(t, err)

	assert.IsType(t, &sdktrace.TracerProvider{}, otel.GetTracerProvider())
	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	_ = shutdown(context.Background())
}

func TestSampler(t *testing.T) {
	for rate, want := range map[float64]string{
		1:    "ParentBased{root:AlwaysOnSampler",
		3:    "ParentBased{root:AlwaysOnSampler",
		0:    "ParentBased{root:AlwaysOffSampler",
		-2:   "ParentBased{root:AlwaysOffSampler",
		0.25: "ParentBased{root:TraceIDRatioBased{0.25}",
	} {
		assert.Contains(t, Sampler(rate).Description(), want, "rate %v", rate)
	}
}
