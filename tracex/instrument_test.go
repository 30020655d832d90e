package tracex

import (
	"context"
	"encoding/json"
	"testing"

	loggerxtest "github.com/clinia/bulksink/loggerx/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestComponentName(t *testing.T) {
	t.Run("should return component name", func(t *testing.T) {
		assert.Equal(t, "sinkx.channel", ComponentName("sinkx", "channel"))
	})
}

func TestInstrument(t *testing.T) {
	l, buf := loggerxtest.NewTestLoggerWithJSONBuffer(t)
	tracer := noop.NewTracerProvider().Tracer("test")

	t.Run("should return instrumentation outputs", func(t *testing.T) {
		ctx, span, logger := Instrument(context.Background(), l, tracer, "sinkx.channel", "submit")
		defer span.End()
		assert.Equal(t, span, trace.SpanFromContext(ctx))
		assert.NotSame(t, l, logger)

		logger.Info(ctx, "test message")

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(buf.String()), &logEntry))

		assert.Equal(t, "test message", logEntry["msg"])
		assert.Equal(t, "sinkx.channel.submit", logEntry["component"])
	})
}
