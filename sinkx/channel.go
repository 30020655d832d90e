package sinkx

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/loggerx"
	"github.com/clinia/bulksink/retryx"
	"github.com/clinia/bulksink/tracex"
	slogctx "github.com/veqryn/slog-context"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const channelComponentName = "sinkx.channel"

// BulkClient sends a bulk request to the remote store. A returned error means
// the request got no per-item response and may be retried as a whole.
type BulkClient interface {
	Bulk(ctx context.Context, req *BulkRequest) (*BulkResponse, error)
	Close() error
}

// Listener is notified from the goroutine sending the request. Exactly one of
// OnSuccess and OnTransportFailure is called per submission.
type Listener interface {
	BeforeBulk(req *BulkRequest)
	OnSuccess(req *BulkRequest, resp *BulkResponse)
	OnTransportFailure(req *BulkRequest, err *TransportError)
}

type CompletionToken struct {
	executionID int64
	done        chan struct{}
}

func (t *CompletionToken) ExecutionID() int64 {
	return t.executionID
}

// Done is closed once the listener has been notified.
func (t *CompletionToken) Done() <-chan struct{} {
	return t.done
}

// SubmissionChannel sends bulk requests on their own goroutine and retries
// transport failures according to a backoff policy.
type SubmissionChannel struct {
	client BulkClient
	policy retryx.Policy
	l      *loggerx.Logger
	tracer trace.Tracer
	now    func() time.Time

	// ctx is cancelled on Close to interrupt backoff waits.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	// Unix milliseconds, written by sending goroutines.
	lastSendTime atomic.Int64
	ackTime      atomic.Int64
}

func NewSubmissionChannel(ctx context.Context, client BulkClient, policy retryx.Policy, l *loggerx.Logger, tracer trace.Tracer, now func() time.Time) *SubmissionChannel {
	if now == nil {
		now = time.Now
	}
	c := &SubmissionChannel{
		client: client,
		policy: policy,
		l:      l,
		tracer: tracer,
		now:    now,
	}
	c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.ackTime.Store(math.MaxInt64)
	return c
}

func (c *SubmissionChannel) instrument(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span, *loggerx.Logger) {
	return tracex.Instrument(ctx, c.l, c.tracer, channelComponentName, name, opts...)
}

// Submit returns immediately; req is sent on a new goroutine.
func (c *SubmissionChannel) Submit(req *BulkRequest, listener Listener) (*CompletionToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrChannelClosed
	}

	token := &CompletionToken{executionID: req.ExecutionID, done: make(chan struct{})}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(token.done)
		c.send(req, listener)
	}()
	return token, nil
}

func (c *SubmissionChannel) send(req *BulkRequest, listener Listener) {
	ctx, span, l := c.instrument(c.ctx, "bulk",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int64("bulksink.execution_id", req.ExecutionID),
			attribute.Int("bulksink.actions", req.NumberOfActions()),
			attribute.Int64("bulksink.bytes", req.EstimatedSizeInBytes()),
		),
	)
	defer span.End()
	ctx = slogctx.Append(ctx, "bulksink.execution_id", req.ExecutionID)

	listener.BeforeBulk(req)

	// In flight requests are never cancelled, only the waits between attempts.
	sendCtx := context.WithoutCancel(ctx)
	attempts := 0
	var resp *BulkResponse
	err := backoff.RetryNotify(func() error {
		attempts++
		c.lastSendTime.Store(c.now().UnixMilli())
		r, err := c.client.Bulk(sendCtx, req)
		if err != nil {
			return err
		}
		if r == nil || len(r.Items) != req.NumberOfActions() {
			got := 0
			if r != nil {
				got = len(r.Items)
			}
			return errorx.InternalErrorf("bulk response has %d items for %d actions", got, req.NumberOfActions())
		}
		c.ackTime.Store(c.now().UnixMilli())
		resp = r
		return nil
	}, backoff.WithContext(retryx.NewBackOff(c.policy), ctx), func(err error, wait time.Duration) {
		l.WithError(err).Warn(ctx, "bulk request failed, retrying",
			attribute.Int("attempt", attempts),
			attribute.Stringer("wait", wait),
		)
	})
	span.SetAttributes(attribute.Int("bulksink.attempts", attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		listener.OnTransportFailure(req, &TransportError{ExecutionID: req.ExecutionID, Attempts: attempts, Err: err})
		return
	}
	if resp.HasFailures() {
		span.SetStatus(codes.Error, "bulk response has item failures")
	}
	listener.OnSuccess(req, resp)
}

// CurrentSendTime is the time between the last send and its acknowledgement,
// in milliseconds. It is very large until the first acknowledgement.
func (c *SubmissionChannel) CurrentSendTime() int64 {
	ack := c.ackTime.Load()
	if ack == math.MaxInt64 {
		return math.MaxInt64
	}
	return ack - c.lastSendTime.Load()
}

// Close refuses new submissions, interrupts backoff waits and waits for the
// submissions in progress. Requests already on the wire run to completion.
func (c *SubmissionChannel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
