package errorx

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("should return clinia error from stack", func(t *testing.T) {
		err := FailedPreconditionErrorf("test")
		serr := errors.WithStack(err)

		cerr, ok := IsCliniaError(serr)
		assert.True(t, ok)
		assert.Equal(t, ErrorTypeFailedPrecondition, cerr.Type)
	})

	t.Run("should return is invalid argument from wrapped error", func(t *testing.T) {
		err := errors.Wrap(InvalidArgumentErrorf("test"), "while validating")
		assert.True(t, IsInvalidArgumentError(err))
		assert.False(t, IsInternalError(err))
	})

	t.Run("should format message with original error", func(t *testing.T) {
		boom := errors.New("boom")
		err := InternalErrorf("panic in %s", "mail").WithOriginalError(boom)
		assert.EqualError(t, err, "[INTERNAL] panic in mail: boom")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("should capture the caller stack", func(t *testing.T) {
		err := InternalErrorf("test")
		assert.Contains(t, err.StackTrace(), "TestError")
	})

	t.Run("should not match non clinia errors", func(t *testing.T) {
		_, ok := IsCliniaError(errors.New("plain"))
		assert.False(t, ok)
	})

	t.Run("should validate error types", func(t *testing.T) {
		et, err := ParseErrorType("INTERNAL")
		require.NoError(t, err)
		assert.Equal(t, ErrorTypeInternal, et)

		_, err = ParseErrorType("NOPE")
		assert.True(t, IsInvalidArgumentError(err))
	})

	t.Run("should match not found errors", func(t *testing.T) {
		err := fmt.Errorf("lookup: %w", NotFoundErrorf("kafka topic '%s' does not exist", "records"))
		assert.True(t, IsNotFoundError(err))
		assert.False(t, IsInternalError(err))
	})
}

func TestFatalError(t *testing.T) {
	cause := errors.New("bulk failed")
	err := errors.Wrap(NewFatalError(cause), "writer")

	fe, ok := IsFatalError(err)
	require.True(t, ok)
	assert.ErrorIs(t, fe, cause)
	assert.EqualError(t, fe, "Fatal - bulk failed")

	_, ok = IsFatalError(cause)
	assert.False(t, ok)
}
