package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "srefhub-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(TracingConfig{ServiceName: "srefhub-test", Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", newSampler(1).Description())
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestStartExternalCall(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() { Tracer = prev })

	span, _ := StartExternalCall(context.Background(), "gemini", "generateContent")
	span.AddAttributes(attribute.String("llm.model", "gemini-2.0-flash"))
	span.SetError(nil)
	span.End()

	failed, _ := StartExternalCall(context.Background(), "s3", "PutObject")
	failed.SetError(errors.New("access denied"))
	failed.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	ok := ended[0]
	assert.Equal(t, "gemini.generateContent", ok.Name())
	assert.Equal(t, trace.SpanKindClient, ok.SpanKind())
	assert.Contains(t, ok.Attributes(), attribute.String("peer.service", "gemini"))
	assert.Contains(t, ok.Attributes(), attribute.String("llm.model", "gemini-2.0-flash"))
	assert.Equal(t, codes.Unset, ok.Status().Code)

	bad := ended[1]
	assert.Equal(t, "s3.PutObject", bad.Name())
	assert.Equal(t, codes.Error, bad.Status().Code)
	assert.Equal(t, "access denied", bad.Status().Description)
}
