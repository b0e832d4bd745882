// Package tracing wires OpenTelemetry for long runs: one span per run and
// per snapshot or resize batch.
package tracing

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// InstrumentationName names the tracer used by every package.
const InstrumentationName = "github.com/olivierh59500/orbitals-go"

// Config governs how tracing is initialised.
type Config struct {
	Enabled     bool
	ServiceName string
	// Output receives the JSON spans; nil means stderr.
	Output      io.Writer
	SampleRatio float64
}

// Init installs a tracer provider according to cfg and returns a function
// that flushes and stops it.
func Init(ctx context.Context, cfg Config, log *zap.SugaredLogger) (func(context.Context) error, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debugw("tracing disabled; using noop tracer provider")
		return func(context.Context) error { return nil }, nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(out),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create stdout trace exporter")
	}

	service := cfg.ServiceName
	if service == "" {
		service = "orbitals"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", service),
	))
	if err != nil {
		return nil, errors.Wrap(err, "create trace resource")
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Infow("tracing enabled", "service_name", service, "sample_ratio", ratio)
	return tp.Shutdown, nil
}

// Tracer returns the package-wide tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// ShutdownWithTimeout calls shutdown with a bounded timeout and logs failures.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log *zap.SugaredLogger) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil && log != nil {
		log.Warnw("tracing shutdown failed", "error", err)
	}
}
