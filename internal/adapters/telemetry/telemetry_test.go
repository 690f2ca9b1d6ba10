package telemetry_test

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
	"go.trai.ch/sift/internal/adapters/telemetry"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/sift/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func setupRecorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func TestOTelTracer_Start(t *testing.T) {
	sr, tp := setupRecorder(t)
	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")

	_, span := tracer.Start(context.Background(), "remote.fetch", ports.WithAttribute("url", "https://example.com/a.yml"))
	span.SetAttribute("cached", true)
	span.SetAttribute("attempts", 1)
	span.SetAttribute("paths", []string{"a", "b"})
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "remote.fetch", spans[0].Name())

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "https://example.com/a.yml", attrs["url"].AsString())
	assert.True(t, attrs["cached"].AsBool())
	assert.Equal(t, int64(1), attrs["attempts"].AsInt64())
	assert.Equal(t, []string{"a", "b"}, attrs["paths"].AsStringSlice())
}

func TestOTelSpan_RecordError(t *testing.T) {
	sr, tp := setupRecorder(t)
	tracer := telemetry.NewOTelTracerWithProvider(tp, "test")

	_, span := tracer.Start(context.Background(), "config.resolve")
	span.RecordError(nil)
	span.RecordError(errors.New("boom"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	assert.Len(t, spans[0].Events(), 1)
}

func TestNoOpTracer(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	got, span := tracer.Start(ctx, "anything")
	assert.Equal(t, ctx, got)

	span.SetAttribute("k", "v")
	span.RecordError(errors.New("ignored"))
	span.End()
}

func TestLogBridge_OnEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	var logged string
	mockLogger.EXPECT().Info(gomock.Any()).Do(func(msg string) { logged = msg }).Times(1)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewLogBridge(mockLogger)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "config.build_graph")
	span.SetAttributes(attribute.Int("vertices", 3))
	span.SetStatus(codes.Error, "cycle")
	span.End()

	assert.Contains(t, logged, "trace config.build_graph")
	assert.Contains(t, logged, "vertices=3")
	assert.Contains(t, logged, "error=cycle")
}

func TestLogBridge_NilLogger(_ *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewLogBridge(nil)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "span")
	span.End()
}
