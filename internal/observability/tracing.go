package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/PabloGalante/vision-relay"

const (
	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
)

// InitTracing installs a global tracer provider for the given exporter.
// With "none" the OpenTelemetry no-op provider stays in place.
func InitTracing(ctx context.Context, exporter string) (func(context.Context) error, error) {
	switch exporter {
	case "", TraceExporterNone:
		return func(context.Context) error { return nil }, nil
	case TraceExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("build stdout exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tp)
		return tp.Shutdown, nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", exporter)
	}
}

func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
