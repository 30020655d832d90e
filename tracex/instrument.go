package tracex

import (
	"context"

	"github.com/clinia/bulksink/loggerx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const ComponentNameSeparator = "."

func ComponentName(packageName, structName string) string {
	return packageName + ComponentNameSeparator + structName
}

/*
Instrument starts a span named after the component and returns a logger tagged with the same component. `span.End()` must be called at the end of using the span.

	const myComponentName = "sinkx.channel"

	func (c *channel) instrument(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span, *loggerx.Logger) {
	    return tracex.Instrument(ctx, c.l, c.tracer, myComponentName, name, opts...)
	}
*/
func Instrument(ctx context.Context, l *loggerx.Logger, tracer trace.Tracer, componentName string, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span, *loggerx.Logger) {
	fullComponentName := ComponentName(componentName, name)
	ctx, span := tracer.Start(ctx, fullComponentName, opts...)
	return ctx, span, l.WithFields(attribute.Key("component").String(fullComponentName))
}
