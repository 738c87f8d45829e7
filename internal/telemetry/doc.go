// Package telemetry sets up OpenTelemetry tracing and metrics export over
// OTLP (gRPC or HTTP). Telemetry is optional: when disabled or when an
// exporter cannot be created, Tracer and Meter return no-op instruments and
// the process keeps running.
//
// TestTelemetry offers in-memory span and metric readers for tests.
package telemetry
