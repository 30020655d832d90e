package slogx

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewLogFields(t *testing.T) {
	attrs := NewLogFields(
		attribute.Bool("flush_on_checkpoint", true),
		attribute.Int("actions", 3),
		attribute.Float64("size_mb", 1.5),
		attribute.String("index", "docs"),
		attribute.StringSlice("ids", []string{"a", "b"}),
	)

	assert.Equal(t, []slog.Attr{
		slog.Bool("flush_on_checkpoint", true),
		slog.Int64("actions", 3),
		slog.Float64("size_mb", 1.5),
		slog.String("index", "docs"),
		slog.Any("ids", []string{"a", "b"}),
	}, attrs)
}

func TestErrorAttr(t *testing.T) {
	attr := ErrorAttr(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.KindGroup, attr.Value.Kind())

	group := attr.Value.Group()
	assert.Equal(t, "boom", group[0].Value.String())
	assert.Equal(t, "*errors.errorString", group[1].Value.String())

	assert.True(t, ErrorAttr(nil).Equal(slog.Attr{}))
}
