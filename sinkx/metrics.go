package sinkx

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/clinia/bulksink/sinkx"

const (
	MetricRecordsSent = "bulksink.records.sent"
	MetricBytesSent   = "bulksink.bytes.sent"
	MetricSendTime    = "bulksink.send.time"
)

type metrics struct {
	recordsSent metric.Int64Counter
	bytesSent   metric.Int64Counter
	sendTime    metric.Int64ObservableGauge

	registration metric.Registration
}

// newMetrics registers the writer instruments. sendTime is read on every collection.
func newMetrics(mp metric.MeterProvider, sendTime func() int64) (*metrics, error) {
	meter := mp.Meter(meterName)

	m := &metrics{}
	var err error
	m.recordsSent, err = meter.Int64Counter(MetricRecordsSent,
		metric.WithDescription("Number of actions handed to the writer"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	m.bytesSent, err = meter.Int64Counter(MetricBytesSent,
		metric.WithDescription("Estimated size of the bulk requests sent"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	m.sendTime, err = meter.Int64ObservableGauge(MetricSendTime,
		metric.WithDescription("Time between the last bulk request sent and its acknowledgement"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(m.sendTime, sendTime())
		return nil
	}, m.sendTime)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metrics) close() error {
	return m.registration.Unregister()
}
