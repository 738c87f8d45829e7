// Package logging wraps zap for lifearchitect.
//
// Loggers add correlation fields from the context: trace and span ids, the
// request id set by the HTTP layer, the calendar day being changed and the
// AI flow being run.
//
//	ctx = logging.WithDay(ctx, "2024-06-01")
//	logger.Info(ctx, "tasks migrated", zap.Int("count", n))
//
// Output goes to stdout (JSON or console) and optionally to an OpenTelemetry
// log provider through otelzap. Stdout output passes through a redacting
// encoder that masks sensitive keys such as api_key and values that look
// like bearer tokens. Entries below Error can be sampled.
//
// Services take a plain *zap.Logger; use Underlying to hand one over.
package logging
