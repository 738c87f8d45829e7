package logging

import (
	"context"
	"regexp"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type requestCtxKey struct{}
type dayCtxKey struct{}
type flowCtxKey struct{}
type loggerCtxKey struct{}

var (
	idPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
	dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ContextFields extracts correlation fields from ctx.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request.id", id))
	}
	if day := DayFromContext(ctx); day != "" {
		fields = append(fields, zap.String("day", day))
	}
	if flow := FlowFromContext(ctx); flow != "" {
		fields = append(fields, zap.String("flow", flow))
	}
	return fields
}

// WithRequestID adds a request id to ctx. Ids that are not 1-128
// alphanumeric, hyphen or underscore characters are ignored since they
// arrive from clients.
func WithRequestID(ctx context.Context, id string) context.Context {
	if !idPattern.MatchString(id) {
		return ctx
	}
	return context.WithValue(ctx, requestCtxKey{}, id)
}

// RequestIDFromContext returns the request id or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestCtxKey{}).(string)
	return id
}

// WithDay adds the calendar day (YYYY-MM-DD) being operated on. Malformed
// days are ignored.
func WithDay(ctx context.Context, day string) context.Context {
	if !dayPattern.MatchString(day) {
		return ctx
	}
	return context.WithValue(ctx, dayCtxKey{}, day)
}

// DayFromContext returns the day or "".
func DayFromContext(ctx context.Context) string {
	day, _ := ctx.Value(dayCtxKey{}).(string)
	return day
}

// WithFlow adds the name of the running AI flow.
func WithFlow(ctx context.Context, flow string) context.Context {
	if flow == "" {
		return ctx
	}
	return context.WithValue(ctx, flowCtxKey{}, flow)
}

// FlowFromContext returns the flow name or "".
func FlowFromContext(ctx context.Context) string {
	flow, _ := ctx.Value(flowCtxKey{}).(string)
	return flow
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or a nop logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
