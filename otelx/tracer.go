// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"context"

	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/loggerx"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerProvider wraps the configured trace.TracerProvider with its
// propagator and shutdown hook.
type TracerProvider struct {
	trace.TracerProvider
	propagator propagation.TextMapPropagator
	shutdown   func(ctx context.Context) error
}

// TextMapPropagator returns the underlying OpenTelemetry textMapPropagator.
func (tp *TracerProvider) TextMapPropagator() propagation.TextMapPropagator {
	return tp.propagator
}

// Shutdown flushes pending spans and stops the exporter.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.shutdown == nil {
		return nil
	}
	return tp.shutdown(ctx)
}

// NewTracerProvider constructs the tracer provider based on the given configuration.
func NewTracerProvider(ctx context.Context, l *loggerx.Logger, c *TracerConfig) (*TracerProvider, error) {
	prop := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		b3.New(),
		jaeger.Jaeger{},
	)

	switch c.Provider {
	case "otel":
		tp, err := SetupOTLPTracerProvider(ctx, c)
		if err != nil {
			return nil, err
		}
		l.Info(ctx, "OTLP tracer configured!", attribute.String("server_url", c.Providers.OTLP.ServerURL))
		return &TracerProvider{TracerProvider: tp, propagator: prop, shutdown: tp.Shutdown}, nil

	case "stdout":
		tp, err := SetupStdoutTracerProvider(c)
		if err != nil {
			return nil, err
		}
		l.Info(ctx, "Stdout tracer configured! Sending spans to stdout")
		return &TracerProvider{TracerProvider: tp, propagator: prop, shutdown: tp.Shutdown}, nil

	case "":
		l.Info(ctx, "No tracer configured - skipping tracing setup")
		return &TracerProvider{TracerProvider: noop.NewTracerProvider(), propagator: propagation.NewCompositeTextMapPropagator()}, nil

	default:
		return nil, errorx.InvalidArgumentErrorf("unknown tracer provider '%s'", c.Provider)
	}
}
