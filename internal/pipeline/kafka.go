package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/loggerx"
	"github.com/samber/lo"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"github.com/twmb/franz-go/plugin/kslog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const DefaultMaxPollRecords = 500

type KafkaConfig struct {
	Brokers  []string `json:"brokers"`
	Topics   []string `json:"topics"`
	Group    string   `json:"group"`
	ClientID string   `json:"client_id"`
	// MaxPollRecords bounds the records written between two polls.
	MaxPollRecords int `json:"max_poll_records"`
	// ResetOffset is `earliest` or `latest` and applies to partitions without a committed offset.
	ResetOffset string `json:"reset_offset"`
	// IdleInterval is how long a poll waits for records before the writer mailbox is processed.
	IdleInterval time.Duration `json:"idle_interval"`
}

// KafkaClient is the part of kgo.Client a KafkaSource uses.
type KafkaClient interface {
	PollRecords(ctx context.Context, maxPollRecords int) kgo.Fetches
	CommitUncommittedOffsets(ctx context.Context) error
	Close()
}

// KafkaSource consumes a consumer group and commits offsets only after the
// writer flushed every record polled so far.
type KafkaSource struct {
	cl              KafkaClient
	maxPollRecords  int
	checkpointEvery int
	idle            time.Duration
	l               *loggerx.Logger
}

var _ Source = (*KafkaSource)(nil)

type KafkaTelemetry struct {
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
	MeterProvider  metric.MeterProvider
}

func newKotel(t KafkaTelemetry) *kotel.Kotel {
	tr := kotel.NewTracer(
		kotel.TracerProvider(t.TracerProvider),
		kotel.TracerPropagator(t.Propagator),
	)
	m := kotel.NewMeter(kotel.MeterProvider(t.MeterProvider))
	return kotel.NewKotel(kotel.WithTracer(tr), kotel.WithMeter(m))
}

// DialKafkaSource connects to the brokers and checks every topic exists.
func DialKafkaSource(ctx context.Context, cfg KafkaConfig, checkpointEvery int, l *loggerx.Logger, t KafkaTelemetry) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 || len(cfg.Topics) == 0 || cfg.Group == "" {
		return nil, errorx.InvalidArgumentErrorf("kafka source requires brokers, topics and group")
	}

	kopts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
		kgo.WithLogger(kslog.New(l.Logger)),
	}
	if cfg.ClientID != "" {
		kopts = append(kopts, kgo.ClientID(cfg.ClientID))
	}
	switch cfg.ResetOffset {
	case "", "earliest":
		kopts = append(kopts, kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()))
	case "latest":
		kopts = append(kopts, kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()))
	default:
		return nil, errorx.InvalidArgumentErrorf("unknown reset offset '%s'", cfg.ResetOffset)
	}
	if t.TracerProvider != nil && t.MeterProvider != nil && t.Propagator != nil {
		kopts = append(kopts, kgo.WithHooks(newKotel(t).Hooks()...))
	}

	cl, err := kgo.NewClient(kopts...)
	if err != nil {
		return nil, errorx.InternalErrorf("unable to create kafka client").WithOriginalError(err)
	}

	details, err := kadm.NewClient(cl).ListTopics(ctx, cfg.Topics...)
	if err != nil {
		cl.Close()
		return nil, errorx.InternalErrorf("unable to list kafka topics").WithOriginalError(err)
	}
	for _, topic := range cfg.Topics {
		if d, ok := details[topic]; !ok || d.Err != nil {
			cl.Close()
			return nil, errorx.NotFoundErrorf("kafka topic '%s' does not exist", topic)
		}
	}

	s := NewKafkaSource(cl, checkpointEvery, l)
	s.maxPollRecords = lo.Ternary(cfg.MaxPollRecords > 0, cfg.MaxPollRecords, DefaultMaxPollRecords)
	if cfg.IdleInterval > 0 {
		s.idle = cfg.IdleInterval
	}
	return s, nil
}

func NewKafkaSource(cl KafkaClient, checkpointEvery int, l *loggerx.Logger) *KafkaSource {
	return &KafkaSource{
		cl:              cl,
		maxPollRecords:  DefaultMaxPollRecords,
		checkpointEvery: checkpointEvery,
		idle:            DefaultIdleInterval,
		l:               l,
	}
}

func (s *KafkaSource) Run(ctx context.Context, w Writer) error {
	var records, sinceCheckpoint int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pollCtx, cancel := context.WithTimeout(ctx, s.idle)
		fetches := s.cl.PollRecords(pollCtx, s.maxPollRecords)
		cancel()

		if fetches.IsClientClosed() {
			s.l.Info(ctx, "kafka client closed", attribute.Int("records", records))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fetchErrors(fetches); err != nil {
			return err
		}

		if fetches.NumRecords() == 0 {
			if err := w.ProcessMailbox(); err != nil {
				return err
			}
			if sinceCheckpoint > 0 {
				if err := s.checkpoint(ctx, w, records); err != nil {
					return err
				}
				sinceCheckpoint = 0
			}
			continue
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			r := iter.Next()
			if err := w.Write(ctx, r.Value); err != nil {
				return err
			}
			records++
			sinceCheckpoint++
		}

		// Committing marks every polled record, so checkpoints only happen
		// between polls.
		if s.checkpointEvery > 0 && sinceCheckpoint >= s.checkpointEvery {
			if err := s.checkpoint(ctx, w, records); err != nil {
				return err
			}
			sinceCheckpoint = 0
		}
	}
}

func (s *KafkaSource) checkpoint(ctx context.Context, w Writer, records int) error {
	if err := w.Flush(ctx, false); err != nil {
		return err
	}
	if err := s.cl.CommitUncommittedOffsets(ctx); err != nil {
		return errorx.InternalErrorf("unable to commit kafka offsets").WithOriginalError(err)
	}
	s.l.Debug(ctx, "checkpoint committed", attribute.Int("records", records))
	return nil
}

// fetchErrors ignores poll timeouts, which only mean no record was available.
func fetchErrors(fetches kgo.Fetches) error {
	errs := lo.FilterMap(fetches.Errors(), func(fe kgo.FetchError, _ int) (error, bool) {
		if errors.Is(fe.Err, context.DeadlineExceeded) || errors.Is(fe.Err, context.Canceled) {
			return nil, false
		}
		return fe.Err, true
	})
	if len(errs) == 0 {
		return nil
	}
	return errorx.InternalErrorf("error while polling records").WithOriginalError(errors.Join(errs...))
}

func (s *KafkaSource) Close() error {
	s.cl.Close()
	return nil
}
