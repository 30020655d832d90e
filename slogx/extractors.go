package slogx

import (
	"context"
	"log/slog"
	"time"

	slogctx "github.com/veqryn/slog-context"
	"go.opentelemetry.io/otel/trace"
)

// TraceExtractor adds the trace and span ids of the span found in ctx.
func TraceExtractor() slogctx.AttrExtractor {
	return func(ctx context.Context, _ time.Time, _ slog.Level, _ string) []slog.Attr {
		sc := trace.SpanContextFromContext(ctx)
		if !sc.IsValid() {
			return nil
		}
		return []slog.Attr{
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		}
	}
}

// NewContextHandler wraps next so records also carry the attributes stored in
// the context with slogctx.Prepend and slogctx.Append, and the current trace.
func NewContextHandler(next slog.Handler) slog.Handler {
	return slogctx.NewHandler(next, &slogctx.HandlerOptions{
		Prependers: []slogctx.AttrExtractor{slogctx.ExtractPrepended},
		Appenders:  []slogctx.AttrExtractor{slogctx.ExtractAppended, TraceExtractor()},
	})
}
