package sinkx

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/loggerx"
	"github.com/clinia/bulksink/sinkx/mailbox"
	"github.com/inhies/go-bytesize"
	"go.opentelemetry.io/otel/attribute"
)

const writerComponentName = "sinkx.writer"

type State int32

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Writer batches the actions emitted for each element into bulk requests and
// sends them in the background, at most one request at a time.
//
// A Writer is driven by a single goroutine: Write, Flush, ProcessMailbox and
// Close must not be called concurrently. Completions of bulk requests are
// applied on that goroutine whenever it runs the mailbox.
type Writer[IN any] struct {
	*writer
	emitter Emitter[IN]
}

// writer holds the state shared by every Writer instantiation. Fields below
// mailbox are only accessed from mails or from the goroutine driving the writer.
type writer struct {
	l              *loggerx.Logger
	cfg            Config
	client         BulkClient
	channel        *SubmissionChannel
	metrics        *metrics
	failureHandler FailureHandler
	mailbox        *mailbox.Mailbox
	closeEmitter   func() error

	batcher              *Batcher
	pending              int64
	inFlight             bool
	checkpointInProgress bool
	deferred             []WriteAction
	failure              error

	closed atomic.Bool
	state  atomic.Int32

	intervalQueued atomic.Bool
	tickerStop     chan struct{}
	tickerWG       sync.WaitGroup
}

// NewWriter opens emitter and returns a writer sending through client. The
// writer owns client and emitter from then on and closes them in Close.
func NewWriter[IN any](ctx context.Context, client BulkClient, emitter Emitter[IN], opts ...Option) (*Writer[IN], error) {
	o := newWriterOptions(opts)
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := o.cfg.BackoffPolicy()
	if err != nil {
		return nil, err
	}

	l := o.l.WithFields(attribute.String("component", writerComponentName))
	w := &writer{
		l:              l,
		cfg:            o.cfg,
		client:         client,
		failureHandler: o.failureHandler,
		mailbox:        mailbox.New(l),
		closeEmitter:   emitter.Close,
		batcher:        NewBatcher(o.cfg.BatcherConfig(), o.clock),
	}
	w.channel = NewSubmissionChannel(ctx, client, policy, o.l, o.tracerProvider.Tracer(meterName), o.clock)

	w.metrics, err = newMetrics(o.meterProvider, w.channel.CurrentSendTime)
	if err != nil {
		w.channel.Close()
		return nil, errorx.InternalErrorf("failed to register writer metrics").WithOriginalError(err)
	}

	if err := emitter.Open(ctx); err != nil {
		w.channel.Close()
		_ = w.metrics.close()
		return nil, errorx.NewFatalError(&LifecycleError{Op: "open emitter", Err: err})
	}

	if interval := o.cfg.FlushInterval(); interval > 0 {
		w.startTicker(interval)
	}

	return &Writer[IN]{writer: w, emitter: emitter}, nil
}

// Write emits element and sends a bulk request when a flush threshold is
// reached. When a request is already in flight it waits for its completion
// first.
func (w *Writer[IN]) Write(ctx context.Context, element IN) error {
	if w.closed.Load() {
		return ErrWriterClosed
	}
	if w.failure != nil {
		return w.failure
	}

	// Called from a mail while Flush waits: the actions are parked by the
	// indexer and must not drive the mailbox from here.
	if w.checkpointInProgress {
		return w.emitter.Emit(ctx, element, requestIndexer{w: w.writer})
	}

	if err := w.pump(w.mailbox.RunAvailable); err != nil {
		return err
	}
	if err := w.emitter.Emit(ctx, element, requestIndexer{w: w.writer}); err != nil {
		return err
	}
	return w.maybeFlush(ctx)
}

// Flush sends every buffered action and, when flush on checkpoint is enabled
// or endOfInput is set, waits until all of them are acknowledged. Actions
// added while Flush waits are sent after it returns, unless endOfInput is set:
// then they are sent and awaited before Flush returns.
func (w *writer) Flush(ctx context.Context, endOfInput bool) error {
	if w.closed.Load() {
		return ErrWriterClosed
	}
	if w.failure != nil {
		return w.failure
	}
	if w.checkpointInProgress {
		return ErrFlushInProgress
	}

	w.checkpointInProgress = true
	defer w.lowerBarrier()

	for {
		for w.pending != 0 && (w.cfg.FlushOnCheckpoint || endOfInput) {
			if !w.inFlight {
				if w.batcher.Len() == 0 {
					return errorx.InternalErrorf("%d actions pending with nothing buffered or in flight", w.pending)
				}
				if err := w.submit(); err != nil {
					return err
				}
			}

			w.l.Info(ctx, "waiting for pending actions", attribute.Int64("pending", w.pending))
			if err := w.pump(func() error { return w.mailbox.Yield(ctx) }); err != nil {
				return err
			}
		}

		// No flush follows the end of input, so parked actions go out now.
		if !endOfInput || len(w.deferred) == 0 {
			return nil
		}
		actions := w.deferred
		w.deferred = nil
		w.accept(actions)
	}
}

// ProcessMailbox applies the completions received so far. Producers that may
// stay idle call it periodically so interval flushes and acknowledgements are
// not delayed until the next Write.
func (w *writer) ProcessMailbox() error {
	if w.closed.Load() {
		return ErrWriterClosed
	}
	if w.failure != nil {
		return w.failure
	}
	return w.pump(w.mailbox.RunAvailable)
}

// Execute schedules fn on the goroutine driving the writer. It reports false
// once the writer is closed.
func (w *writer) Execute(name string, fn func() error) bool {
	if w.closed.Load() {
		return false
	}
	return w.mailbox.Execute(name, fn)
}

// PendingActions is the number of actions accepted but not yet acknowledged.
func (w *writer) PendingActions() int64 {
	return w.pending
}

func (w *writer) State() State {
	return State(w.state.Load())
}

// CurrentSendTime reports the last bulk round trip in milliseconds.
func (w *writer) CurrentSendTime() int64 {
	return w.channel.CurrentSendTime()
}

// Close releases the emitter, the submission channel and the client. Buffered
// actions are not flushed and completions arriving later are dropped.
func (w *Writer[IN]) Close() error {
	return w.close()
}

func (w *writer) close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	w.state.Store(int32(StateClosing))
	w.stopTicker()

	var errs []error
	if err := w.closeEmitter(); err != nil {
		errs = append(errs, &LifecycleError{Op: "close emitter", Err: err})
	}
	w.channel.Close()
	w.mailbox.Close()
	if err := w.client.Close(); err != nil {
		errs = append(errs, &LifecycleError{Op: "close client", Err: err})
	}
	if err := w.metrics.close(); err != nil {
		errs = append(errs, &LifecycleError{Op: "unregister metrics", Err: err})
	}

	w.state.Store(int32(StateClosed))
	return errors.Join(errs...)
}

func (w *writer) add(actions ...WriteAction) error {
	for _, a := range actions {
		if err := a.Validate(); err != nil {
			return err
		}
	}

	if w.checkpointInProgress {
		w.deferred = append(w.deferred, actions...)
		return nil
	}

	w.accept(actions)
	return nil
}

func (w *writer) accept(actions []WriteAction) {
	for _, a := range actions {
		w.batcher.Add(a)
	}
	w.pending += int64(len(actions))
	w.metrics.recordsSent.Add(context.Background(), int64(len(actions)))
}

func (w *writer) maybeFlush(ctx context.Context) error {
	if !w.batcher.ShouldFlush() {
		return nil
	}
	for w.inFlight {
		if err := w.pump(func() error { return w.mailbox.Yield(ctx) }); err != nil {
			return err
		}
	}
	return w.submit()
}

func (w *writer) submit() error {
	req := w.batcher.Drain()
	if req == nil {
		return nil
	}

	if _, err := w.channel.Submit(req, bulkListener{w: w}); err != nil {
		w.pending -= int64(req.NumberOfActions())
		return err
	}
	w.inFlight = true
	return nil
}

// pump runs fn and keeps the first error so every later call reports it.
func (w *writer) pump(fn func() error) error {
	if err := fn(); err != nil {
		if w.failure == nil && !transient(err) {
			w.failure = err
		}
		return err
	}
	return nil
}

func transient(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrFlushInProgress)
}

func (w *writer) lowerBarrier() {
	w.checkpointInProgress = false
	if len(w.deferred) == 0 {
		return
	}
	w.mailbox.Execute("replay deferred actions", w.replayDeferred)
}

func (w *writer) replayDeferred() error {
	actions := w.deferred
	w.deferred = nil
	if err := w.add(actions...); err != nil {
		return err
	}
	if !w.inFlight && !w.checkpointInProgress && w.batcher.ShouldFlush() {
		return w.submit()
	}
	return nil
}

// bulkListener is called from the sending goroutine.
type bulkListener struct {
	w *writer
}

func (bl bulkListener) BeforeBulk(req *BulkRequest) {
	w := bl.w
	w.metrics.bytesSent.Add(context.Background(), req.EstimatedSizeInBytes())
	w.l.Info(context.Background(), "sending bulk request",
		attribute.Int64("execution_id", req.ExecutionID),
		attribute.Int("actions", req.NumberOfActions()),
		attribute.String("size", bytesize.New(float64(req.EstimatedSizeInBytes())).String()),
	)
}

func (bl bulkListener) OnSuccess(req *BulkRequest, resp *BulkResponse) {
	w := bl.w
	w.complete("bulk success", req, func() error {
		if !resp.HasFailures() {
			return nil
		}
		return w.failureHandler(context.Background(), itemFailures(req, resp))
	})
}

func (bl bulkListener) OnTransportFailure(req *BulkRequest, err *TransportError) {
	w := bl.w
	w.complete("bulk transport failure", req, func() error {
		w.l.WithError(err).Error(context.Background(), "bulk request failed",
			attribute.Int64("execution_id", req.ExecutionID),
			attribute.Int("attempts", err.Attempts),
		)
		return w.failureHandler(context.Background(), err)
	})
}

// complete runs on the sending goroutine and only hands the outcome over to
// the mailbox.
func (w *writer) complete(name string, req *BulkRequest, handle func() error) {
	if w.closed.Load() || !w.mailbox.Execute(name, func() error {
		if w.closed.Load() {
			w.warnClosed(req)
			return nil
		}
		w.inFlight = false
		w.pending -= int64(req.NumberOfActions())
		return handle()
	}) {
		w.warnClosed(req)
	}
}

func (w *writer) warnClosed(req *BulkRequest) {
	w.l.Warn(context.Background(), "writer was closed before all records were acknowledged",
		attribute.Int64("execution_id", req.ExecutionID),
		attribute.Int("actions", req.NumberOfActions()),
	)
}

func itemFailures(req *BulkRequest, resp *BulkResponse) error {
	var chained error
	for i, item := range resp.Items {
		if !item.Failed() {
			continue
		}
		chained = errorx.FirstOrSuppressed(&ItemError{
			Action: req.Actions[i].String(),
			Status: item.Status,
			Cause:  item.Err,
		}, chained)
	}
	return chained
}

func (w *writer) startTicker(interval time.Duration) {
	w.tickerStop = make(chan struct{})
	ticker := time.NewTicker(interval)
	w.tickerWG.Add(1)
	go func() {
		defer w.tickerWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-w.tickerStop:
				return
			case <-ticker.C:
				// At most one interval flush is queued at a time.
				if !w.intervalQueued.CompareAndSwap(false, true) {
					continue
				}
				if !w.mailbox.Execute("interval flush", w.intervalFlush) {
					w.intervalQueued.Store(false)
				}
			}
		}
	}()
}

func (w *writer) stopTicker() {
	if w.tickerStop == nil {
		return
	}
	close(w.tickerStop)
	w.tickerWG.Wait()
}

func (w *writer) intervalFlush() error {
	w.intervalQueued.Store(false)
	if w.inFlight || w.batcher.Len() == 0 {
		return nil
	}
	return w.submit()
}
