package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/sift/internal/core/ports"
)

// LogBridge implements sdktrace.SpanProcessor and reports every finished span
// through a ports.Logger. It backs the --trace flag.
type LogBridge struct {
	logger ports.Logger
}

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger) *LogBridge {
	return &LogBridge{logger: logger}
}

// Install registers a global tracer provider that reports spans through the bridge.
// Tracers created from the global provider earlier forward to it as well.
func Install(logger ports.Logger) func(context.Context) error {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewLogBridge(logger)))
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// OnStart does nothing.
func (b *LogBridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, duration, attributes and status.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !s.SpanContext().IsValid() {
		return
	}

	parts := []string{
		fmt.Sprintf("trace %s %s", s.Name(), s.EndTime().Sub(s.StartTime()).Round(time.Microsecond)),
	}
	for _, attr := range s.Attributes() {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value.Emit()))
	}
	if s.Status().Code == codes.Error {
		parts = append(parts, "error="+s.Status().Description)
	}

	b.logger.Info(strings.Join(parts, " "))
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(_ context.Context) error {
	return nil
}
