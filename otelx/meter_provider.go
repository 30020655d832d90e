// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"context"
	"net/http"

	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/loggerx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterProvider wraps the configured metric.MeterProvider with its shutdown
// hook and, for the prometheus provider, the handler serving the /metrics endpoint.
type MeterProvider struct {
	metric.MeterProvider
	handler  http.Handler
	shutdown func(ctx context.Context) error
}

// Handler returns nil unless the provider is prometheus.
func (mp *MeterProvider) Handler() http.Handler {
	return mp.handler
}

// Shutdown flushes and stops the exporters.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.shutdown == nil {
		return nil
	}
	return mp.shutdown(ctx)
}

// NewMeterProvider creates a new meter provider based on the configuration.
func NewMeterProvider(ctx context.Context, l *loggerx.Logger, c *MeterConfig) (*MeterProvider, error) {
	switch c.Provider {
	case "prometheus":
		mp, err := SetupPrometheusMeterProvider(c)
		if err != nil {
			return nil, err
		}
		l.Info(ctx, "Prometheus meter configured! Sending measurements to /metrics endpoint")
		return mp, nil

	case "otel":
		mp, err := SetupOTLPMeterProvider(ctx, c)
		if err != nil {
			return nil, err
		}
		l.Info(ctx, "OTLP meter configured!", attribute.String("server_url", c.Providers.OTLP.ServerURL))
		return mp, nil

	case "stdout":
		mp, err := SetupStdoutMeterProvider(c)
		if err != nil {
			return nil, err
		}
		l.Info(ctx, "Stdout meter configured! Sending measurements to stdout")
		return mp, nil

	case "":
		l.Info(ctx, "Missing provider in config - skipping meter setup")
		return &MeterProvider{MeterProvider: noop.NewMeterProvider()}, nil

	default:
		return nil, errorx.InvalidArgumentErrorf("unknown meter provider '%s'", c.Provider)
	}
}
