package otelx

import (
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func SetupStdoutTracerProvider(c *TracerConfig) (*sdktrace.TracerProvider, error) {
	opts := []stdouttrace.Option{}

	if c.Providers.Stdout.Pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}

	exp, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(newResource(c.ServiceName, c.ResourceAttributes)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(
			c.Providers.OTLP.Sampling.SamplingRatio,
		))),
	), nil
}

func SetupStdoutMeterProvider(c *MeterConfig) (*MeterProvider, error) {
	opts := []stdoutmetric.Option{}

	if c.Providers.Stdout.Pretty {
		opts = append(opts, stdoutmetric.WithPrettyPrint())
	}

	exp, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(newResource(c.ServiceName, c.ResourceAttributes)),
	)
	return &MeterProvider{MeterProvider: mp, shutdown: mp.Shutdown}, nil
}
