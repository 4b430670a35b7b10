// Package observability builds the process-wide zap logger and the
// OpenTelemetry tracer provider used by the HTTP layer.
package observability
