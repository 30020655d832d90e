// Package config holds the configuration of the bulksink binary.
package config

import (
	"context"
	_ "embed"

	"github.com/clinia/bulksink/configx"
	"github.com/clinia/bulksink/elasticx"
	elasticxbulk "github.com/clinia/bulksink/elasticx/bulk"
	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/internal/pipeline"
	"github.com/clinia/bulksink/loggerx"
	"github.com/clinia/bulksink/otelx"
	"github.com/clinia/bulksink/sinkx"
	"github.com/spf13/pflag"
)

//go:embed config.schema.json
var Schema []byte

const (
	SourceNDJSON = "ndjson"
	SourceKafka  = "kafka"
)

type Config struct {
	Log           LogConfig              `json:"log"`
	Sink          sinkx.Config           `json:"sink"`
	Elasticsearch elasticx.Config        `json:"elasticsearch"`
	Bulk          BulkConfig             `json:"bulk"`
	Emitter       pipeline.EmitterConfig `json:"emitter"`
	Source        SourceConfig           `json:"source"`
	Metrics       MetricsConfig          `json:"metrics"`
	Tracing       otelx.TracerConfig     `json:"tracing"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// BulkConfig holds the query parameters sent with every bulk request.
type BulkConfig struct {
	Refresh  string `json:"refresh"`
	Pipeline string `json:"pipeline"`
	Routing  string `json:"routing"`
	Timeout  string `json:"timeout"`
}

type SourceConfig struct {
	Type string `json:"type"`
	// CheckpointEvery is the number of records between two checkpoint flushes.
	CheckpointEvery int                   `json:"checkpoint_every"`
	NDJSON          pipeline.NDJSONConfig `json:"ndjson"`
	Kafka           pipeline.KafkaConfig  `json:"kafka"`
}

type MetricsConfig struct {
	otelx.MeterConfig `json:",squash"`
	// ListenAddress serves /metrics when the prometheus provider is used.
	ListenAddress string `json:"listen_address"`
}

func defaults() map[string]interface{} {
	sink := sinkx.DefaultConfig()
	return map[string]interface{}{
		"log.level":                                      "info",
		"log.format":                                     "json",
		"sink.flush_on_checkpoint":                       sink.FlushOnCheckpoint,
		"sink.bulk_flush_max_actions":                    sink.BulkFlushMaxActions,
		"sink.bulk_flush_max_size_mb":                    sink.BulkFlushMaxSizeMB,
		"sink.bulk_flush_interval_ms":                    sink.BulkFlushIntervalMs,
		"sink.backoff.type":                              sink.Backoff.Type,
		"elasticsearch.addresses":                        []interface{}{"http://localhost:9200"},
		"source.type":                                    SourceNDJSON,
		"source.checkpoint_every":                        1000,
		"metrics.service_name":                           "bulksink",
		"metrics.listen_address":                         ":9090",
		"tracing.service_name":                           "bulksink",
		"tracing.providers.otlp.sampling.sampling_ratio": 1.0,
	}
}

// RegisterFlags adds the flags read by Load.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringSliceP("config", "c", nil, "Path to one or more .json, .yaml or .yml config files")
	flags.String("log.level", "info", "Minimum log level")
	flags.String("source.type", SourceNDJSON, "Source of the records, ndjson or kafka")
	flags.String("source.ndjson.path", "", "NDJSON file to read, stdin when empty")
	flags.Int("source.checkpoint_every", 1000, "Records between two checkpoint flushes")
	flags.String("emitter.index", "", "Index receiving the records")
}

// Load merges defaults, config files, BULKSINK_ environment variables and flags.
func Load(ctx context.Context, flags *pflag.FlagSet, l *loggerx.Logger, opts ...configx.OptionModifier) (*Config, error) {
	files, err := flags.GetStringSlice("config")
	if err != nil {
		return nil, errorx.InvalidArgumentErrorf("unable to read config flag").WithOriginalError(err)
	}

	p, err := configx.New(ctx, Schema, append([]configx.OptionModifier{
		configx.WithLogger(l),
		configx.WithBaseValues(defaults()),
		configx.WithConfigFiles(files...),
		configx.WithFlags(withoutConfigFlag(flags)),
		configx.WithStderrValidationReporter(),
	}, opts...)...)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := p.Unmarshal("", &c); err != nil {
		return nil, errorx.InvalidArgumentErrorf("unable to decode configuration").WithOriginalError(err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func withoutConfigFlag(flags *pflag.FlagSet) *pflag.FlagSet {
	out := pflag.NewFlagSet(flags.Name(), pflag.ContinueOnError)
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name != "config" {
			out.AddFlag(f)
		}
	})
	return out
}

// Validate checks what the schema cannot express.
func (c *Config) Validate() error {
	if err := c.Sink.Validate(); err != nil {
		return err
	}
	if c.Bulk.Refresh != "" {
		if _, ok := elasticxbulk.ParseRefresh(c.Bulk.Refresh); !ok {
			return errorx.InvalidArgumentErrorf("unknown refresh value '%s'", c.Bulk.Refresh)
		}
	}
	if c.Emitter.Index == "" && c.Emitter.IndexField == "" {
		return errorx.InvalidArgumentErrorf("either emitter.index or emitter.index_field must be set")
	}
	switch c.Source.Type {
	case SourceNDJSON, SourceKafka:
	default:
		return errorx.InvalidArgumentErrorf("unknown source type '%s'", c.Source.Type)
	}
	return nil
}

// BulkOptions translates BulkConfig to bulk request options.
func (c *Config) BulkOptions() []elasticxbulk.Option {
	var opts []elasticxbulk.Option
	if r, ok := elasticxbulk.ParseRefresh(c.Bulk.Refresh); ok {
		opts = append(opts, elasticxbulk.Refresh(r))
	}
	if c.Bulk.Pipeline != "" {
		opts = append(opts, elasticxbulk.Pipeline(c.Bulk.Pipeline))
	}
	if c.Bulk.Routing != "" {
		opts = append(opts, elasticxbulk.Routing(c.Bulk.Routing))
	}
	if c.Bulk.Timeout != "" {
		opts = append(opts, elasticxbulk.Timeout(c.Bulk.Timeout))
	}
	return opts
}
