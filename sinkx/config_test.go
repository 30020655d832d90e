package sinkx

import (
	"testing"
	"time"

	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/retryx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("should default to the reference settings", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.Validate())
		assert.True(t, cfg.FlushOnCheckpoint)
		assert.Equal(t, BatcherConfig{MaxActions: 1000, MaxSizeBytes: Unset, Interval: Unset}, cfg.BatcherConfig())

		p, err := cfg.BackoffPolicy()
		require.NoError(t, err)
		assert.Equal(t, retryx.TypeNone, p.Type())
	})

	t.Run("should convert thresholds", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.BulkFlushMaxActions = Unset
		cfg.BulkFlushMaxSizeMB = 5
		cfg.BulkFlushIntervalMs = 250
		require.NoError(t, cfg.Validate())

		assert.Equal(t, BatcherConfig{
			MaxActions:   Unset,
			MaxSizeBytes: 5 * 1024 * 1024,
			Interval:     250 * time.Millisecond,
		}, cfg.BatcherConfig())
		assert.Equal(t, 250*time.Millisecond, cfg.FlushInterval())
	})

	t.Run("should build the backoff policy", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Backoff = BackoffConfig{Type: "EXPONENTIAL", DelayMs: 10, MaxRetries: 2}
		p, err := cfg.BackoffPolicy()
		require.NoError(t, err)

		d, ok := p.Next(1)
		assert.True(t, ok)
		assert.Equal(t, 20*time.Millisecond, d)
	})

	t.Run("should reject invalid values", func(t *testing.T) {
		for name, mutate := range map[string]func(*Config){
			"zero max actions": func(c *Config) { c.BulkFlushMaxActions = 0 },
			"negative size":    func(c *Config) { c.BulkFlushMaxSizeMB = -2 },
			"zero interval":    func(c *Config) { c.BulkFlushIntervalMs = 0 },
			"unknown backoff":  func(c *Config) { c.Backoff.Type = "LINEAR" },
			"negative retries": func(c *Config) { c.Backoff = BackoffConfig{Type: "CONSTANT", MaxRetries: -1} },
		} {
			cfg := DefaultConfig()
			mutate(&cfg)
			err := cfg.Validate()
			assert.True(t, errorx.IsInvalidArgumentError(err), name)
		}
	})
}
