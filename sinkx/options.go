package sinkx

import (
	"time"

	"github.com/clinia/bulksink/loggerx"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type writerOptions struct {
	cfg            Config
	l              *loggerx.Logger
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	failureHandler FailureHandler
	clock          func() time.Time
}

type Option func(*writerOptions)

func WithConfig(cfg Config) Option {
	return func(o *writerOptions) {
		o.cfg = cfg
	}
}

func WithLogger(l *loggerx.Logger) Option {
	return func(o *writerOptions) {
		o.l = l
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *writerOptions) {
		o.meterProvider = mp
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *writerOptions) {
		o.tracerProvider = tp
	}
}

// WithFailureHandler replaces DefaultFailureHandler.
func WithFailureHandler(h FailureHandler) Option {
	return func(o *writerOptions) {
		o.failureHandler = h
	}
}

// WithClock overrides time.Now for the batcher interval threshold and the send time gauge.
func WithClock(now func() time.Time) Option {
	return func(o *writerOptions) {
		o.clock = now
	}
}

func newWriterOptions(opts []Option) *writerOptions {
	o := &writerOptions{
		cfg:            DefaultConfig(),
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
		failureHandler: DefaultFailureHandler,
		clock:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.l == nil {
		o.l = loggerx.New("bulksink")
	}
	return o
}
