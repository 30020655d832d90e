// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"go.opentelemetry.io/otel/attribute"
)

type OTLPMeterConfig struct {
	Protocol  string `json:"protocol"`
	ServerURL string `json:"server_url"`
	Insecure  bool   `json:"insecure"`
}

type StdoutMeterConfig struct {
	Pretty bool `json:"pretty"`
}

type MeterProvidersConfig struct {
	OTLP   OTLPMeterConfig   `json:"otlp"`
	Stdout StdoutMeterConfig `json:"stdout"`
}

type MeterConfig struct {
	ServiceName        string               `json:"service_name"`
	Name               string               `json:"name"`
	Provider           string               `json:"provider"`
	Providers          MeterProvidersConfig `json:"providers,omitempty"`
	ResourceAttributes []attribute.KeyValue `json:"-"`
}
