package loggerx

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/clinia/bulksink/errorx"
	internaltracex "github.com/clinia/bulksink/internal/tracex"
	"github.com/clinia/bulksink/slogx"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Logger struct {
	*slog.Logger
}

type options struct {
	level  slog.Level
	format string
	out    io.Writer
}

type Option func(*options)

// WithLevel sets the minimum level. Unknown values fall back to info.
func WithLevel(level string) Option {
	return func(o *options) {
		switch strings.ToLower(level) {
		case "debug":
			o.level = slog.LevelDebug
		case "warn", "warning":
			o.level = slog.LevelWarn
		case "error":
			o.level = slog.LevelError
		default:
			o.level = slog.LevelInfo
		}
	}
}

// WithFormat selects the handler, either "json" (default) or "text".
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// New creates a Logger writing to stderr unless WithOutput is given.
func New(name string, opts ...Option) *Logger {
	o := &options{level: slog.LevelInfo, format: "json", out: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	hOpts := &slog.HandlerOptions{Level: o.level}
	var h slog.Handler
	if o.format == "text" {
		h = slog.NewTextHandler(o.out, hOpts)
	} else {
		h = slog.NewJSONHandler(o.out, hOpts)
	}

	return &Logger{slog.New(slogx.NewContextHandler(h)).With(slog.String("logger", name))}
}

func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	ll := &Logger{l.Logger.With(slogx.ErrorAttr(err))}
	if cerr, ok := errorx.IsCliniaError(err); ok {
		if st := cerr.StackTrace(); st != "" {
			ll = ll.WithFields(semconv.ExceptionStacktrace(st))
		}
	}
	return ll
}

func (l *Logger) Panic(ctx context.Context, msg string, kvs ...attribute.KeyValue) *Logger {
	l.Error(ctx, msg, kvs...)
	panic(msg)
}

func (l *Logger) WithStackTrace() *Logger {
	return l.WithFields(semconv.ExceptionStacktrace(internaltracex.GetStackTrace(3)))
}

func (l *Logger) Error(ctx context.Context, msg string, kvs ...attribute.KeyValue) {
	l.Logger.LogAttrs(ctx, slog.LevelError, msg, slogx.NewLogFields(kvs...)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, kvs ...attribute.KeyValue) {
	l.Logger.LogAttrs(ctx, slog.LevelWarn, msg, slogx.NewLogFields(kvs...)...)
}

func (l *Logger) Info(ctx context.Context, msg string, kvs ...attribute.KeyValue) {
	l.Logger.LogAttrs(ctx, slog.LevelInfo, msg, slogx.NewLogFields(kvs...)...)
}

func (l *Logger) Debug(ctx context.Context, msg string, kvs ...attribute.KeyValue) {
	l.Logger.LogAttrs(ctx, slog.LevelDebug, msg, slogx.NewLogFields(kvs...)...)
}

func (l *Logger) WithFields(kvs ...attribute.KeyValue) *Logger {
	lfs := slogx.NewLogFields(kvs...)
	// This is a workaround until we get a nice slog.WithAttrs method - See https://github.com/golang/go/issues/66937#issuecomment-2730350514
	return &Logger{l.Logger.With("", slog.GroupValue(lfs...))}
}
