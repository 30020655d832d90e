package errorx

import (
	"fmt"

	"github.com/pkg/errors"
)

// FatalError marks a failure the pipeline cannot recover from. Whoever
// receives it must stop processing.
type FatalError struct {
	error
}

var _ error = (*FatalError)(nil)

func NewFatalError(err error) *FatalError {
	return &FatalError{
		error: err,
	}
}

func (fe *FatalError) Unwrap() error {
	return fe.error
}

func (fe *FatalError) Error() string {
	return fmt.Sprintf("Fatal - %s", fe.error.Error())
}

func IsFatalError(err error) (*FatalError, bool) {
	var fe *FatalError
	if !errors.As(err, &fe) {
		return nil, false
	}
	return fe, true
}
