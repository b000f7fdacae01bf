// Package logging provides structured logging for the SmartCover proxy.
//
// It wraps the standard library's log/slog with:
//   - Configurable output format (JSON for production, text for development)
//   - Level-based filtering
//   - Default service and version attributes on every record
//
// Request handlers log metadata only (method, path, status, duration,
// request id), never credentials, tokens or upstream payloads.
package logging
