// Package observability настраивает трассировку OpenTelemetry.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/annel0/interactions/internal/logging"
)

// TracerName: имя инструментирующей библиотеки для спанов движка
const TracerName = "github.com/annel0/interactions"

// Options описывает экспорт трассировки
type Options struct {
	Service  string  // service.name
	Endpoint string  // host:port OTLP/HTTP; пусто: localhost:4318
	Insecure bool    // без TLS
	Ratio    float64 // доля семплируемых трасс; <= 0 или >= 1: все
}

// Shutdown завершает провайдер трассировки
type Shutdown func(context.Context) error

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
func InitTelemetry(ctx context.Context, opts Options, logger *logging.Logger) (Shutdown, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Service == "" {
		opts.Service = "interactions"
	}

	var expOpts []otlptracehttp.Option
	if opts.Endpoint != "" {
		expOpts = append(expOpts, otlptracehttp.WithEndpoint(opts.Endpoint))
	}
	if opts.Insecure {
		expOpts = append(expOpts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, expOpts...)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(opts.Service)),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(opts.Ratio)),
	)

	otel.SetTracerProvider(tp)
	logger.Info("OpenTelemetry инициализирован (OTLP → %s, service=%s)", endpointOrDefault(opts.Endpoint), opts.Service)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// Tracer возвращает трейсер движка из глобального провайдера
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// NoopTracer возвращает трейсер, не создающий спанов
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer(TracerName)
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

func endpointOrDefault(ep string) string {
	if ep == "" {
		return "localhost:4318"
	}
	return ep
}
