package sinkx

import (
	"context"
	"fmt"

	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/loggerx"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrWriterClosed  = errorx.FailedPreconditionErrorf("writer is closed")
	ErrChannelClosed = errorx.FailedPreconditionErrorf("submission channel is closed")
	// ErrFlushInProgress is returned by a Flush issued from a mail while
	// another Flush waits. It does not fail the writer.
	ErrFlushInProgress = errorx.FailedPreconditionErrorf("flush is already in progress")
)

// TransportError is returned when a bulk request never got a usable response,
// after every retry allowed by the backoff policy.
type TransportError struct {
	ExecutionID int64
	Attempts    int
	Err         error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bulk request %d failed after %d attempt(s): %v", e.ExecutionID, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ItemError is one action rejected by the store within an otherwise successful response.
type ItemError struct {
	Action string
	Status int
	Cause  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("single action %s of bulk request failed with status %d: %v", e.Action, e.Status, e.Cause)
}

func (e *ItemError) Unwrap() error {
	return e.Cause
}

// LifecycleError reports a failure while opening or closing a collaborator.
type LifecycleError struct {
	Op  string
	Err error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}

// FailureHandler receives every item and transport failure. A non nil return
// aborts the writer: the error surfaces from the next Write or Flush and every
// later call returns it too.
type FailureHandler func(ctx context.Context, err error) error

// DefaultFailureHandler makes every failure fatal.
func DefaultFailureHandler(_ context.Context, err error) error {
	return errorx.NewFatalError(err)
}

// LogAndContinue logs failures and keeps the writer running. Failed actions are lost.
func LogAndContinue(l *loggerx.Logger) FailureHandler {
	return func(ctx context.Context, err error) error {
		causes := 1
		if chained, ok := err.(*errorx.ChainedError); ok {
			causes = chained.Causes()
		}
		l.WithError(err).Error(ctx, "dropping failed actions", attribute.Int("causes", causes))
		return nil
	}
}
