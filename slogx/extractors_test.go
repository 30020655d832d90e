package slogx

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slogctx "github.com/veqryn/slog-context"
	"go.opentelemetry.io/otel/trace"
)

func spanContext(t *testing.T) trace.SpanContext {
	t.Helper()
	tid, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	return trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled})
}

func TestTraceExtractor(t *testing.T) {
	extract := TraceExtractor()

	assert.Nil(t, extract(context.Background(), time.Now(), slog.LevelInfo, "msg"))

	ctx := trace.ContextWithSpanContext(context.Background(), spanContext(t))
	assert.Equal(t, []slog.Attr{
		slog.String("trace_id", "4bf92f3577b34da6a3ce929d0e0e4736"),
		slog.String("span_id", "00f067aa0ba902b7"),
	}, extract(ctx, time.Now(), slog.LevelInfo, "msg"))
}

func TestNewContextHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	l := slog.New(NewContextHandler(slog.NewJSONHandler(buf, nil)))

	ctx := trace.ContextWithSpanContext(context.Background(), spanContext(t))
	ctx = slogctx.Append(ctx, "bulksink.execution_id", 7)
	l.InfoContext(ctx, "sending bulk")

	out := buf.String()
	assert.Contains(t, out, `"bulksink.execution_id":7`)
	assert.Contains(t, out, `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`)
}
