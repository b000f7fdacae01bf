// Package api implements the proxy's public HTTP surface.
//
// This package provides:
//   - The token endpoint (POST /api/v1/auth/token) and stateless token
//     introspection (GET /api/v1/auth/token-info)
//   - Bearer-guarded read-only SmartCover endpoints (locations, live and
//     historical data, alarms, alerts)
//   - Liveness (GET /api/v1/health) and Prometheus exposition (GET /api/v1/metrics)
//   - Middleware stack (request ID, logging, recovery, CORS, body limit,
//     metrics, bearer auth)
//
// # Architecture
//
// The router sits between external consumers (the dashboard UI and any
// other HTTP client) and the SmartCover upstream. The auth middleware
// resolves every authentication failure at this boundary: a request with
// a missing, malformed or expired token never reaches the upstream client.
// Validation failures map to 400, auth failures to 401, and upstream
// failures are relayed with their own status and a stable error code.
//
// # Statelessness
//
// No request leaves state behind. The only exception is the optional
// authentication audit trail, written asynchronously when enabled.
package api
