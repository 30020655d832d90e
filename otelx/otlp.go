// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"context"
	"crypto/tls"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

func SetupOTLPTracerProvider(ctx context.Context, c *TracerConfig) (*sdktrace.TracerProvider, error) {
	exp, err := getTraceExporter(ctx, c)
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

func SetupOTLPMeterProvider(ctx context.Context, c *MeterConfig) (*MeterProvider, error) {
	exp, err := getMetricExporter(ctx, c)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(newResource(c.ServiceName, c.ResourceAttributes)),
	)
	return &MeterProvider{MeterProvider: mp, shutdown: mp.Shutdown}, nil
}

func getTraceExporter(ctx context.Context, c *TracerConfig) (*otlptrace.Exporter, error) {
	switch c.Providers.OTLP.Protocol {
	case "http":
		clientOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(c.Providers.OTLP.ServerURL),
		}
		if c.Providers.OTLP.Insecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}

		return otlptrace.New(ctx, otlptracehttp.NewClient(clientOpts...))

	case "grpc":
		conn, err := newGRPCConn(c.Providers.OTLP.ServerURL, c.Providers.OTLP.Insecure)
		if err != nil {
			return nil, err
		}

		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, errors.Errorf("failed to create trace exporter: %s", err)
		}
		return exp, nil

	default:
		return nil, errors.Errorf("unknown protocol: %s", c.Providers.OTLP.Protocol)
	}
}

func getMetricExporter(ctx context.Context, c *MeterConfig) (sdkmetric.Exporter, error) {
	switch c.Providers.OTLP.Protocol {
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(c.Providers.OTLP.ServerURL),
		}
		if c.Providers.OTLP.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}

		return otlpmetrichttp.New(ctx, opts...)

	case "grpc":
		conn, err := newGRPCConn(c.Providers.OTLP.ServerURL, c.Providers.OTLP.Insecure)
		if err != nil {
			return nil, err
		}

		exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, errors.Errorf("failed to create metric exporter: %s", err)
		}
		return exp, nil

	default:
		return nil, errors.Errorf("unknown protocol: %s", c.Providers.OTLP.Protocol)
	}
}

func newGRPCConn(target string, plaintext bool) (*grpc.ClientConn, error) {
	creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	if plaintext {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, errors.Errorf("failed to connect to OTLP gRPC endpoint: %s", err)
	}
	return conn, nil
}
