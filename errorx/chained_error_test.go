package errorx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstOrSuppressed(t *testing.T) {
	t.Run("should keep prior when new error is nil", func(t *testing.T) {
		assert.Nil(t, FirstOrSuppressed(nil, nil))

		prior := errors.New("prior")
		assert.Equal(t, prior, FirstOrSuppressed(nil, prior))
	})

	t.Run("should preserve encounter order", func(t *testing.T) {
		first := errors.New("first")
		second := errors.New("second")
		third := errors.New("third")

		var chained error
		for _, err := range []error{first, second, third} {
			chained = FirstOrSuppressed(err, chained)
		}

		var ce *ChainedError
		require.True(t, errors.As(chained, &ce))
		assert.Equal(t, first, ce.Primary)
		assert.Equal(t, []error{second, third}, ce.Suppressed)
		assert.Equal(t, 3, ce.Causes())
		assert.EqualError(t, ce, "first (and 2 suppressed: second; third)")
	})

	t.Run("should expose every cause to errors.Is", func(t *testing.T) {
		first := errors.New("first")
		second := errors.New("second")

		chained := FirstOrSuppressed(second, FirstOrSuppressed(first, nil))
		assert.ErrorIs(t, chained, first)
		assert.ErrorIs(t, chained, second)
	})

	t.Run("should promote a plain prior error to primary", func(t *testing.T) {
		prior := errors.New("prior")
		next := errors.New("next")

		var ce *ChainedError
		require.True(t, errors.As(FirstOrSuppressed(next, prior), &ce))
		assert.Equal(t, prior, ce.Primary)
		assert.Equal(t, []error{next}, ce.Suppressed)
	})

	t.Run("should render a single cause without suffix", func(t *testing.T) {
		assert.EqualError(t, FirstOrSuppressed(errors.New("only"), nil), "only")
	})
}
