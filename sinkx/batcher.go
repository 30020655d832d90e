package sinkx

import "time"

// Unset disables a flush threshold.
const Unset = -1

type BatcherConfig struct {
	// MaxActions flushes once that many actions are buffered.
	MaxActions int
	// MaxSizeBytes flushes once the estimated size of the buffer reaches it.
	MaxSizeBytes int64
	// Interval flushes a non empty buffer once that much time passed since the last drain.
	Interval time.Duration
}

// Batcher buffers actions until one of its thresholds is reached. It does no
// I/O and is not safe for concurrent use.
type Batcher struct {
	cfg BatcherConfig
	now func() time.Time

	buf       []WriteAction
	sizeBytes int64
	lastDrain time.Time

	nextExecutionID int64
}

func NewBatcher(cfg BatcherConfig, now func() time.Time) *Batcher {
	if now == nil {
		now = time.Now
	}
	return &Batcher{
		cfg:       cfg,
		now:       now,
		lastDrain: now(),
	}
}

func (b *Batcher) Add(a WriteAction) {
	b.buf = append(b.buf, a)
	b.sizeBytes += int64(a.EstimatedSizeInBytes())
}

func (b *Batcher) Len() int {
	return len(b.buf)
}

func (b *Batcher) SizeInBytes() int64 {
	return b.sizeBytes
}

func (b *Batcher) ShouldFlush() bool {
	if len(b.buf) == 0 {
		return false
	}
	if b.cfg.MaxActions > 0 && len(b.buf) >= b.cfg.MaxActions {
		return true
	}
	if b.cfg.MaxSizeBytes > 0 && b.sizeBytes >= b.cfg.MaxSizeBytes {
		return true
	}
	return b.intervalElapsed()
}

func (b *Batcher) intervalElapsed() bool {
	return b.cfg.Interval > 0 && b.now().Sub(b.lastDrain) >= b.cfg.Interval
}

// Drain hands the buffered actions over as one request and resets every
// threshold. It returns nil when the buffer is empty.
func (b *Batcher) Drain() *BulkRequest {
	b.lastDrain = b.now()
	if len(b.buf) == 0 {
		return nil
	}

	b.nextExecutionID++
	req := &BulkRequest{
		ExecutionID: b.nextExecutionID,
		Actions:     b.buf,
		sizeBytes:   b.sizeBytes,
	}
	b.buf = nil
	b.sizeBytes = 0
	return req
}
