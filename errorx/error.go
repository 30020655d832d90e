package errorx

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

const stackTraceDepth = 32

type CliniaError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`

	OriginalError error `json:"-"` // Not returned to clients

	stack []uintptr
}

var _ error = (*CliniaError)(nil)

func (e *CliniaError) Error() string {
	if e.OriginalError != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type.String(), e.Message, e.OriginalError)
	}
	return fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
}

func (e *CliniaError) Unwrap() error {
	return e.OriginalError
}

// WithOriginalError attaches the underlying cause to the error.
func (e *CliniaError) WithOriginalError(err error) *CliniaError {
	e.OriginalError = err
	return e
}

// StackTrace renders the frames captured when the error was created.
func (e *CliniaError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	sb := &strings.Builder{}
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		fmt.Fprintf(sb, "\tat %s (%s:%d)\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return sb.String()
}

func newWithStack(t ErrorType, msg string) *CliniaError {
	pcs := make([]uintptr, stackTraceDepth)
	// skip runtime.Callers, newWithStack and the typed constructor
	n := runtime.Callers(3, pcs)
	return &CliniaError{
		Type:    t,
		Message: msg,
		stack:   pcs[:n],
	}
}

// IsCliniaError returns the first CliniaError found in the chain of e.
func IsCliniaError(e error) (*CliniaError, bool) {
	var mE *CliniaError
	if !errors.As(e, &mE) {
		return nil, false
	}

	if mE.Type == ErrorTypeUnspecified {
		return nil, false
	}

	return mE, true
}
