// Package logger provides structured logging for the enrollment services.
//
// This package wraps log/slog:
//
//   - logger.go: JSON/text slog handlers, one process-wide dynamic level
//   - context.go: request IDs and sender addresses carried in the context
//     and stamped on every record
//   - redact.go: Sensitive data redaction
//
// Features:
//
//   - JSON and text output formats
//   - Log level filtering, adjustable at runtime
//   - Masking of passwords in keys and endpoint URLs
//   - Context propagation for per-datagram request IDs
package logger
