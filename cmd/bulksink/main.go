// Command bulksink streams JSON records from a file, stdin or Kafka into
// Elasticsearch through a checkpoint-aware bulk writer.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clinia/bulksink/elasticx"
	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/httpx"
	"github.com/clinia/bulksink/internal/config"
	"github.com/clinia/bulksink/internal/pipeline"
	"github.com/clinia/bulksink/loggerx"
	"github.com/clinia/bulksink/otelx"
	"github.com/clinia/bulksink/sinkx"
	"github.com/clinia/bulksink/sinkx/essink"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

func main() {
	flags := pflag.NewFlagSet("bulksink", pflag.ExitOnError)
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flags); err != nil {
		fmt.Fprintf(os.Stderr, "bulksink: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, flags *pflag.FlagSet) (err error) {
	c, err := config.Load(ctx, flags, loggerx.New("bulksink"))
	if err != nil {
		return err
	}
	l := loggerx.New("bulksink", loggerx.WithLevel(c.Log.Level), loggerx.WithFormat(c.Log.Format))

	resource := []attribute.KeyValue{attribute.String("bulksink.source", c.Source.Type)}
	c.Metrics.ResourceAttributes = resource
	c.Tracing.ResourceAttributes = resource

	mp, err := otelx.NewMeterProvider(ctx, l, &c.Metrics.MeterConfig)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, mp.Shutdown(context.WithoutCancel(ctx))) }()

	tp, err := otelx.NewTracerProvider(ctx, l, &c.Tracing)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, tp.Shutdown(context.WithoutCancel(ctx))) }()

	es, err := elasticx.NewClient(c.Elasticsearch, l)
	if err != nil {
		return err
	}
	if err := es.Ping(ctx); err != nil {
		return errorx.InternalErrorf("elasticsearch is unreachable").WithOriginalError(err)
	}

	emitter, err := pipeline.NewJSONEmitter(c.Emitter, l)
	if err != nil {
		return err
	}

	w, err := sinkx.NewWriter[[]byte](ctx, essink.New(es, c.BulkOptions()...), emitter,
		sinkx.WithConfig(c.Sink),
		sinkx.WithLogger(l),
		sinkx.WithMeterProvider(mp),
		sinkx.WithTracerProvider(tp),
	)
	if err != nil {
		return errors.Join(err, es.Close(ctx))
	}
	defer func() { err = errors.Join(err, w.Close()) }()

	src, err := newSource(ctx, c, l, tp, mp)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, src.Close()) }()

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	if c.Metrics.ListenAddress != "" {
		srv := httpx.NewServer(c.Metrics.ListenAddress, mp.Handler(), func() error {
			if s := w.State(); s != sinkx.StateOpen {
				return errorx.FailedPreconditionErrorf("writer is %s", s)
			}
			return nil
		}, l)
		g.Go(func() error {
			return srv.Run(runCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return src.Run(runCtx, w)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		l.Info(ctx, "interrupted, unacknowledged records will be replayed by the source",
			attribute.Int64("pending_actions", w.PendingActions()))
		return nil
	}
	return err
}

func newSource(ctx context.Context, c *config.Config, l *loggerx.Logger, tp *otelx.TracerProvider, mp *otelx.MeterProvider) (pipeline.Source, error) {
	switch c.Source.Type {
	case config.SourceKafka:
		return pipeline.DialKafkaSource(ctx, c.Source.Kafka, c.Source.CheckpointEvery, l, pipeline.KafkaTelemetry{
			TracerProvider: tp,
			Propagator:     tp.TextMapPropagator(),
			MeterProvider:  mp,
		})
	default:
		return pipeline.OpenNDJSONSource(c.Source.NDJSON, c.Source.CheckpointEvery, l)
	}
}
