// Package telemetry provides OpenTelemetry tracing for glflow.
//
// Tracing is off by default. With the "stdout" exporter spans are printed
// when the command exits; with "otlp" they are sent over OTLP/HTTP to the
// configured collector.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/chazuruo/glflow"

// Exporter names accepted by Init.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Options selects the exporter.
type Options struct {
	Exporter    string
	Endpoint    string // host:port, OTLP only
	ServiceName string
	Version     string
	// Writer receives stdout spans. Defaults to os.Stderr.
	Writer io.Writer
}

// Init installs a global tracer provider and returns its shutdown function,
// which flushes pending spans.
func Init(ctx context.Context, opts Options) (func(context.Context) error, error) {
	if opts.Exporter == "" || opts.Exporter == ExporterNone {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "glflow"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(opts.Version),
		),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	var spanOpt sdktrace.TracerProviderOption
	switch opts.Exporter {
	case ExporterStdout:
		w := opts.Writer
		if w == nil {
			w = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("telemetry: stdout exporter: %w", err)
		}
		spanOpt = sdktrace.WithSyncer(exp)
	case ExporterOTLP:
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(opts.Endpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("telemetry: otlp exporter: %w", err)
		}
		spanOpt = sdktrace.WithBatcher(exp)
	default:
		return nil, fmt.Errorf("telemetry: unknown exporter %q", opts.Exporter)
	}

	tp := sdktrace.NewTracerProvider(
		spanOpt,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Tracer returns a tracer from the global provider scoped under glflow.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(instrumentationScope + "/" + name)
}
