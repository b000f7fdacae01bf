// Package database manages the optional SQLite store backing the
// authentication audit trail.
//
// The proxy core is stateless; this database exists only when the audit
// trail is enabled in configuration. It never stores issued tokens or
// upstream telemetry data.
package database
