package tracing

import (
    "context"
    "io"
    "os"

    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
    sdktrace "go.opentelemetry.io/otel/sdk/trace"
    "go.opentelemetry.io/otel/trace"
)

var enabled bool

// Setup configures a global tracer provider when enable=true. Spans are
// written to w (stderr when nil) so they never mix with the report on
// stdout. It returns a shutdown function which should be deferred.
func Setup(enable bool, w io.Writer) (func(context.Context) error, error) {
    enabled = enable
    if !enable {
        return func(context.Context) error { return nil }, nil
    }
    if w == nil { w = os.Stderr }
    exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint(), stdouttrace.WithWriter(w))
    if err != nil {
        return nil, err
    }
    tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
    otel.SetTracerProvider(tp)
    return tp.Shutdown, nil
}

// StartSpan starts a tracing span if tracing is enabled.
func StartSpan(ctx context.Context, name string) (context.Context, func()) {
    if !enabled {
        return ctx, func() {}
    }
    tr := otel.Tracer("clusterdoctor")
    ctx, span := tr.Start(ctx, name)
    return ctx, func() { span.End() }
}

// SetInt records an integer attribute on the span in ctx, if any.
func SetInt(ctx context.Context, key string, v int) {
    if !enabled { return }
    trace.SpanFromContext(ctx).SetAttributes(attribute.Int(key, v))
}
