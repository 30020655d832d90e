package loggerx

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/clinia/bulksink/errorx"
	"github.com/stretchr/testify/assert"
	slogctx "github.com/veqryn/slog-context"
	"go.opentelemetry.io/otel/attribute"
)

func TestLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("should filter by level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New("bulksink", WithOutput(buf), WithLevel("warn"))

		l.Info(ctx, "hidden")
		l.Warn(ctx, "shown", attribute.Int("actions", 3))

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `"msg":"shown"`)
		assert.Contains(t, buf.String(), `"actions":3`)
		assert.Contains(t, buf.String(), `"logger":"bulksink"`)
	})

	t.Run("should write text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		New("bulksink", WithOutput(buf), WithFormat("text")).Info(ctx, "hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("should add context attributes", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New("bulksink", WithOutput(buf))

		l.Info(slogctx.Append(ctx, "bulksink.execution_id", 4), "sending bulk")
		assert.Contains(t, buf.String(), `"bulksink.execution_id":4`)
	})

	t.Run("should attach errors and their stack", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := New("bulksink", WithOutput(buf))

		l.WithError(errorx.InternalErrorf("boom")).Error(ctx, "failed")
		assert.Contains(t, buf.String(), `"message":"[INTERNAL] boom"`)
		assert.Contains(t, buf.String(), "exception.stacktrace")

		buf.Reset()
		l.WithError(errors.New("plain")).Error(ctx, "failed")
		assert.Contains(t, buf.String(), `"message":"plain"`)
		assert.NotContains(t, buf.String(), "exception.stacktrace")
	})
}
