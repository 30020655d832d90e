package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clinia/bulksink/configx"
	"github.com/clinia/bulksink/errorx"
	loggerxtest "github.com/clinia/bulksink/loggerx/test"
	"github.com/clinia/bulksink/sinkx"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigFile = `
log:
  level: debug
sink:
  bulk_flush_max_actions: 500
  bulk_flush_max_size_mb: 5
  bulk_flush_interval_ms: 1000
  backoff:
    type: EXPONENTIAL
    delay_ms: 100
    max_retries: 3
elasticsearch:
  addresses: ["http://es:9200"]
  request_timeout: 30s
bulk:
  refresh: wait_for
  pipeline: enrich
emitter:
  index: products
  id_field: id
source:
  type: kafka
  checkpoint_every: 200
  kafka:
    brokers: ["kafka:9092"]
    topics: ["products"]
    group: bulksink
    idle_interval: 250ms
metrics:
  provider: prometheus
`

func parseFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("bulksink", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bulksink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	l := loggerxtest.NewTestLogger(t)

	t.Run("should apply defaults", func(t *testing.T) {
		c, err := Load(ctx, parseFlags(t, "--emitter.index=products"), l, configx.DisableEnvLoading())
		require.NoError(t, err)

		assert.Equal(t, "info", c.Log.Level)
		assert.True(t, c.Sink.FlushOnCheckpoint)
		assert.Equal(t, sinkx.DefaultBulkFlushMaxActions, c.Sink.BulkFlushMaxActions)
		assert.EqualValues(t, sinkx.Unset, c.Sink.BulkFlushMaxSizeMB)
		assert.EqualValues(t, sinkx.Unset, c.Sink.BulkFlushIntervalMs)
		assert.Equal(t, SourceNDJSON, c.Source.Type)
		assert.Equal(t, 1000, c.Source.CheckpointEvery)
		assert.Equal(t, []string{"http://localhost:9200"}, c.Elasticsearch.Addresses)
		assert.Equal(t, "bulksink", c.Metrics.ServiceName)
		assert.Equal(t, 1.0, c.Tracing.Providers.OTLP.Sampling.SamplingRatio)
		assert.Empty(t, c.BulkOptions())
	})

	t.Run("should load config files", func(t *testing.T) {
		c, err := Load(ctx, parseFlags(t, "-c", writeConfig(t, testConfigFile)), l, configx.DisableEnvLoading())
		require.NoError(t, err)

		assert.Equal(t, "debug", c.Log.Level)
		assert.Equal(t, 500, c.Sink.BulkFlushMaxActions)
		assert.Equal(t, 5.0, c.Sink.BulkFlushMaxSizeMB)
		assert.EqualValues(t, 1000, c.Sink.BulkFlushIntervalMs)
		assert.Equal(t, "EXPONENTIAL", c.Sink.Backoff.Type)
		assert.Equal(t, 30*time.Second, c.Elasticsearch.RequestTimeout)
		assert.Equal(t, SourceKafka, c.Source.Type)
		assert.Equal(t, []string{"kafka:9092"}, c.Source.Kafka.Brokers)
		assert.Equal(t, 250*time.Millisecond, c.Source.Kafka.IdleInterval)
		assert.Equal(t, "prometheus", c.Metrics.Provider)
		assert.Equal(t, ":9090", c.Metrics.ListenAddress)
		assert.Len(t, c.BulkOptions(), 2)

		p, err := c.Sink.BackoffPolicy()
		require.NoError(t, err)
		assert.Equal(t, 3, p.MaxRetries())
	})

	t.Run("should let env and flags override files", func(t *testing.T) {
		t.Setenv("BULKSINK_SINK__BULK_FLUSH_MAX_ACTIONS", "50")
		t.Setenv("BULKSINK_EMITTER__INDEX", "from-env")

		c, err := Load(ctx, parseFlags(t, "-c", writeConfig(t, testConfigFile), "--emitter.index=from-flag"), l)
		require.NoError(t, err)
		assert.Equal(t, 50, c.Sink.BulkFlushMaxActions)
		assert.Equal(t, "from-flag", c.Emitter.Index)
	})

	t.Run("should reject thresholds of zero", func(t *testing.T) {
		path := writeConfig(t, "emitter:\n  index: a\nsink:\n  bulk_flush_interval_ms: 0\n")
		_, err := Load(ctx, parseFlags(t, "-c", path), l, configx.DisableEnvLoading())
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})

	t.Run("should reject unknown keys", func(t *testing.T) {
		path := writeConfig(t, "emitter:\n  index: a\nsink:\n  flush_every: 3\n")
		_, err := Load(ctx, parseFlags(t, "-c", path), l, configx.DisableEnvLoading())
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})

	t.Run("should require an index", func(t *testing.T) {
		_, err := Load(ctx, parseFlags(t), l, configx.DisableEnvLoading())
		assert.True(t, errorx.IsInvalidArgumentError(err))
		assert.ErrorContains(t, err, "emitter.index")
	})
}
