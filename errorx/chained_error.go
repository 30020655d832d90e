package errorx

import (
	"fmt"
	"strings"
)

// ChainedError is a single failure made of a primary cause followed by
// secondary causes, in the order they were encountered.
type ChainedError struct {
	Primary    error
	Suppressed []error
}

var _ error = (*ChainedError)(nil)

func (e *ChainedError) Error() string {
	if len(e.Suppressed) == 0 {
		return e.Primary.Error()
	}

	sb := &strings.Builder{}
	sb.WriteString(e.Primary.Error())
	fmt.Fprintf(sb, " (and %d suppressed:", len(e.Suppressed))
	for i, s := range e.Suppressed {
		if i > 0 {
			sb.WriteString(";")
		}
		sb.WriteString(" ")
		sb.WriteString(s.Error())
	}
	sb.WriteString(")")
	return sb.String()
}

// Unwrap exposes the primary cause first, then every suppressed cause.
func (e *ChainedError) Unwrap() []error {
	out := make([]error, 0, len(e.Suppressed)+1)
	out = append(out, e.Primary)
	return append(out, e.Suppressed...)
}

// Causes returns the total number of causes held by the error.
func (e *ChainedError) Causes() int {
	return len(e.Suppressed) + 1
}

// FirstOrSuppressed folds newErr into prior.
// When prior is nil, newErr becomes the primary cause. Otherwise newErr is
// appended to the suppressed causes of prior.
func FirstOrSuppressed(newErr error, prior error) error {
	if newErr == nil {
		return prior
	}

	if prior == nil {
		return &ChainedError{Primary: newErr}
	}

	chained, ok := prior.(*ChainedError)
	if !ok {
		chained = &ChainedError{Primary: prior}
	}
	chained.Suppressed = append(chained.Suppressed, newErr)
	return chained
}
