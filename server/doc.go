// Package server provides blobgate's HTTP server: Gin behind h2c, managed as
// a component.Component with health, info and Prometheus metrics routes.
//
// # Middleware
//
// ApplyMiddleware installs, in order:
//
//   - Recovery: panic recovery rendered as an INTERNAL_ERROR envelope
//   - RequestID: X-Request-Id generation and propagation into log lines
//   - CORS: cross-origin headers and preflight answers
//   - BodySizeLimit: caps request bodies at max_body_size
//   - RequestLogger: one line per request, level by status class
//   - Metrics: Prometheus request counters and latency histograms
//
// # Endpoints
//
// RegisterDefaultEndpoints adds /health, /health/live, /health/ready, /info
// and /metrics.
package server
