package sinkx

import (
	"time"

	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/mathx"
	"github.com/clinia/bulksink/retryx"
)

const (
	DefaultBulkFlushMaxActions = 1000
	DefaultBulkFlushMaxSizeMB  = Unset
	DefaultBulkFlushIntervalMs = Unset
)

type Config struct {
	// FlushOnCheckpoint makes Flush wait for every pending action to be acknowledged.
	FlushOnCheckpoint   bool          `json:"flush_on_checkpoint"`
	BulkFlushMaxActions int           `json:"bulk_flush_max_actions"`
	BulkFlushMaxSizeMB  float64       `json:"bulk_flush_max_size_mb"`
	BulkFlushIntervalMs int64         `json:"bulk_flush_interval_ms"`
	Backoff             BackoffConfig `json:"backoff"`
}

type BackoffConfig struct {
	Type       string `json:"type"`
	DelayMs    int64  `json:"delay_ms"`
	MaxRetries int    `json:"max_retries"`
}

func DefaultConfig() Config {
	return Config{
		FlushOnCheckpoint:   true,
		BulkFlushMaxActions: DefaultBulkFlushMaxActions,
		BulkFlushMaxSizeMB:  DefaultBulkFlushMaxSizeMB,
		BulkFlushIntervalMs: DefaultBulkFlushIntervalMs,
		Backoff: BackoffConfig{
			Type: string(retryx.TypeNone),
		},
	}
}

// Validate checks every threshold is either Unset or positive and that the
// backoff settings describe a known policy.
func (c Config) Validate() error {
	if c.BulkFlushMaxActions != Unset && c.BulkFlushMaxActions <= 0 {
		return errorx.InvalidArgumentErrorf("bulk_flush_max_actions must be %d or positive, got %d", Unset, c.BulkFlushMaxActions)
	}
	if c.BulkFlushMaxSizeMB != Unset && c.BulkFlushMaxSizeMB <= 0 {
		return errorx.InvalidArgumentErrorf("bulk_flush_max_size_mb must be %d or positive, got %v", Unset, c.BulkFlushMaxSizeMB)
	}
	if c.BulkFlushIntervalMs != Unset && c.BulkFlushIntervalMs <= 0 {
		return errorx.InvalidArgumentErrorf("bulk_flush_interval_ms must be %d or positive, got %d", Unset, c.BulkFlushIntervalMs)
	}
	_, err := c.BackoffPolicy()
	return err
}

func (c Config) BatcherConfig() BatcherConfig {
	cfg := BatcherConfig{
		MaxActions:   Unset,
		MaxSizeBytes: Unset,
		Interval:     Unset,
	}
	if c.BulkFlushMaxActions > 0 {
		cfg.MaxActions = c.BulkFlushMaxActions
	}
	if c.BulkFlushMaxSizeMB > 0 {
		cfg.MaxSizeBytes = mathx.MBToBytes(c.BulkFlushMaxSizeMB)
	}
	if c.BulkFlushIntervalMs > 0 {
		cfg.Interval = c.FlushInterval()
	}
	return cfg
}

// FlushInterval returns zero when the interval threshold is unset.
func (c Config) FlushInterval() time.Duration {
	if c.BulkFlushIntervalMs <= 0 {
		return 0
	}
	return time.Duration(c.BulkFlushIntervalMs) * time.Millisecond
}

func (c Config) BackoffPolicy() (retryx.Policy, error) {
	return retryx.NewPolicy(retryx.Config{
		Type:       retryx.Type(c.Backoff.Type),
		Delay:      time.Duration(c.Backoff.DelayMs) * time.Millisecond,
		MaxRetries: c.Backoff.MaxRetries,
	})
}
