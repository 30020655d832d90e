package slogx

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
)

// NewLogFields converts OpenTelemetry attributes into slog attributes so the
// same key/values can be shared between spans, metrics and logs.
func NewLogFields(kvs ...attribute.KeyValue) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(kvs))
	for _, kv := range kvs {
		attrs = append(attrs, toAttr(kv))
	}
	return attrs
}

func toAttr(kv attribute.KeyValue) slog.Attr {
	key := string(kv.Key)
	switch kv.Value.Type() {
	case attribute.BOOL:
		return slog.Bool(key, kv.Value.AsBool())
	case attribute.INT64:
		return slog.Int64(key, kv.Value.AsInt64())
	case attribute.FLOAT64:
		return slog.Float64(key, kv.Value.AsFloat64())
	case attribute.STRING:
		return slog.String(key, kv.Value.AsString())
	default:
		return slog.Any(key, kv.Value.AsInterface())
	}
}

// ErrorAttr renders err under the "error" group with its message and Go type.
func ErrorAttr(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Group("error",
		slog.String("message", err.Error()),
		slog.String("type", fmt.Sprintf("%T", err)),
	)
}
