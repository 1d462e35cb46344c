// Package endpoint provides the operational HTTP handlers: health, liveness,
// readiness, build info and Prometheus metrics.
package endpoint
