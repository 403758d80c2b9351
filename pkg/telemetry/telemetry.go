// Package telemetry installs the process tracer provider. Spans go to an
// OTLP collector over gRPC when OTEL_EXPORTER_OTLP_ENDPOINT is set, or as
// JSON to stderr when Stdout is requested. Without either the global no-op
// provider stays in place.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sweetpotato0/keyara/pkg/logging"
)

const (
	instrumentationName = "github.com/sweetpotato0/keyara"

	// EnvEndpoint names the collector address variable.
	EnvEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"

	flushTimeout = 5 * time.Second
)

// Config controls the tracer provider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Disable        bool
	// SampleRatio is the fraction of root traces kept. Values outside (0, 1) keep all.
	SampleRatio    float64
	// Endpoint overrides EnvEndpoint.
	Endpoint       string
	// Stdout exports spans as JSON to Output when no endpoint is set.
	Stdout         bool
	// Output receives stdout-exporter spans. Defaults to os.Stderr.
	Output         io.Writer
	Logger         *slog.Logger
}

// Init installs a global tracer provider and returns its shutdown func.
// With Disable set, or with neither an endpoint nor Stdout, the global
// no-op provider stays in place.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if cfg.Disable {
		return noop, nil
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv(EnvEndpoint)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.WithComponent("telemetry")
	}
	if cfg.Endpoint == "" && !cfg.Stdout {
		logger.Debug("tracing off, no collector endpoint")
		return noop, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "keyara"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	exp, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, flushTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("flushing spans failed", "error", err)
			return err
		}
		return nil
	}, nil
}

// Sampler keeps every trace unless ratio is strictly between 0 and 1.
// Child spans follow their parent's decision.
func Sampler(ratio float64) sdktrace.Sampler {
	root := sdktrace.AlwaysSample()
	if ratio > 0 && ratio < 1 {
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(cfg.ServiceName)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentKey.String(cfg.Environment))
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithFromEnv(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}
	return res, nil
}

func newExporter(ctx context.Context, cfg Config, logger *slog.Logger) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint == "" {
		logger.Debug("no collector endpoint, exporting spans as JSON")
		return stdouttrace.New(stdouttrace.WithWriter(cfg.Output))
	}

	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: dial collector %s: %w", cfg.Endpoint, err)
	}
	logger.Info("exporting spans to collector", "endpoint", cfg.Endpoint)
	return exp, nil
}

// Tracer returns the keyara tracer of the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// End records err on span, if any, and ends it. A nil span is ignored.
func End(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
