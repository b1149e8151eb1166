// Package server provides the HTTP sidecar for serverboard.
//
// This package is internal to serverboard and handles all HTTP concerns:
//
//   - GET /: JSON snapshot of the status cache
//   - GET /health and GET /ping: fixed liveness payload
//   - GET /metrics: Prometheus exposition
//
// Handlers only ever read the cache, so they reflect the last known good
// status and never surface fetch or chat errors. The server supports
// graceful shutdown via context cancellation, with a 5-second timeout for
// in-flight requests.
package server
